package paybill_test

import (
	"testing"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPatch(t *testing.T) {
	t.Parallel()

	t.Run("one operation per path", func(t *testing.T) {
		t.Parallel()

		patch := paybill.NewPlanPatch()
		require.NoError(t, patch.SetName("First"))
		require.NoError(t, patch.SetPaymentFailureThreshold(3))
		require.NoError(t, patch.SetName("Second"))
		require.NoError(t, patch.SetSetupFeeFailureAction("cancel"))

		assert.Equal(t, 3, patch.Len())

		body, err := patch.Serialize()
		require.NoError(t, err)
		assert.JSONEq(t, `[
			{"op": "replace", "path": "/name", "value": "Second"},
			{"op": "replace", "path": "/payment_preferences/payment_failure_threshold", "value": 3},
			{"op": "replace", "path": "/payment_preferences/setup_fee_failure_action", "value": "CANCEL"}
		]`, string(body))
	})

	t.Run("rejected values add nothing", func(t *testing.T) {
		t.Parallel()

		patch := paybill.NewPlanPatch()
		require.ErrorIs(t, patch.SetName(""), paybill.ErrValidation)
		require.ErrorIs(t, patch.SetTaxPercentage("abc"), paybill.ErrValidation)
		require.ErrorIs(t, patch.SetPaymentFailureThreshold(1000), paybill.ErrValidation)
		require.ErrorIs(t, patch.SetSetupFee(paybill.Money{CurrencyCode: "USD", Value: "1.005"}), paybill.ErrValidation)
		require.ErrorIs(t, patch.SetSetupFeeFailureAction("RETRY"), paybill.ErrValidation)

		assert.Zero(t, patch.Len())

		_, err := patch.Serialize()
		require.ErrorIs(t, err, paybill.ErrEmptyPatch)
	})

	t.Run("operations are copied", func(t *testing.T) {
		t.Parallel()

		patch := paybill.NewPlanPatch()
		require.NoError(t, patch.SetAutoBillOutstanding(true))

		ops := patch.Operations()
		ops[0].Value = false

		assert.Equal(t, true, patch.Operations()[0].Value)
		assert.Equal(t, paybill.PlanPathAutoBillOutstanding, ops[0].Path)
	})
}

func TestProductPatch(t *testing.T) {
	t.Parallel()

	patch := paybill.NewProductPatch()
	require.ErrorIs(t, patch.SetCategory("software"), paybill.ErrValidation)
	require.ErrorIs(t, patch.SetImageURL("/relative.png"), paybill.ErrValidation)

	_, err := patch.Serialize()
	require.ErrorIs(t, err, paybill.ErrEmptyPatch)

	require.NoError(t, patch.SetDescription("Premium video streaming"))
	require.NoError(t, patch.SetImageURL("https://example.com/a.png"))
	require.NoError(t, patch.SetImageURL("https://example.com/b.png"))

	body, err := patch.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"op": "replace", "path": "/description", "value": "Premium video streaming"},
		{"op": "replace", "path": "/image_url", "value": "https://example.com/b.png"}
	]`, string(body))
}
