package paybill_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExchange = errors.New("connection refused")

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		notFound   bool
		notReady   bool
		validation bool
		soft       bool
	}{
		{"not found", &paybill.NotFoundError{Resource: "plan", ID: "P-1"}, true, false, false, false},
		{"wrapped not ready", fmt.Errorf("list plans: %w", &paybill.NotReadyError{Method: http.MethodGet, Path: "/v1/billing/plans"}), false, true, false, false},
		{"validation", &paybill.ValidationError{Field: "name", Rule: "min"}, false, false, true, false},
		{"rejection", paybill.ParseResponseError(http.StatusBadRequest, nil), false, false, false, true},
		{"rejected 404", paybill.ParseResponseError(http.StatusNotFound, nil), true, false, false, true},
		{"plain", errExchange, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.notFound, paybill.IsNotFound(tt.err))
			assert.Equal(t, tt.notReady, paybill.IsNotReady(tt.err))
			assert.Equal(t, tt.validation, paybill.IsValidation(tt.err))
			assert.Equal(t, tt.soft, paybill.IsSoftFailure(tt.err))
		})
	}
}

func TestParseResponseError(t *testing.T) {
	t.Parallel()

	t.Run("platform error document", func(t *testing.T) {
		t.Parallel()

		err := paybill.ParseResponseError(http.StatusUnprocessableEntity, []byte(`{
			"name": "UNPROCESSABLE_ENTITY",
			"message": "The requested action could not be performed.",
			"debug_id": "f2d9a1b6c3e4",
			"details": [{"issue": "PLAN_STATUS_INVALID", "description": "Invalid plan status."}]
		}`))

		assert.Equal(t, "UNPROCESSABLE_ENTITY: The requested action could not be performed. (status: 422, debug_id: f2d9a1b6c3e4)", err.Error())
		require.NotNil(t, err.FirstDetail())
		assert.Equal(t, "PLAN_STATUS_INVALID", err.FirstDetail().Issue)
	})

	t.Run("body that is not json", func(t *testing.T) {
		t.Parallel()

		err := paybill.ParseResponseError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))

		assert.Equal(t, "unexpected status 502", err.Error())
		assert.Equal(t, "<html>bad gateway</html>", string(err.Body))
		assert.Nil(t, err.FirstDetail())
	})
}

func TestAuthenticationError(t *testing.T) {
	t.Parallel()

	err := error(&paybill.AuthenticationError{Attempts: 3, Err: errExchange})

	require.ErrorIs(t, err, paybill.ErrAuthentication)
	require.ErrorIs(t, err, errExchange)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
}

func TestInvalidStateError(t *testing.T) {
	t.Parallel()

	err := &paybill.InvalidStateError{
		Resource: "plan",
		ID:       "P-1",
		Status:   "ACTIVE",
		Action:   "activate",
		Allowed:  []string{"CREATED", "INACTIVE"},
	}

	assert.Equal(t, `cannot activate plan "P-1" in status ACTIVE (allowed: CREATED, INACTIVE)`, err.Error())
}
