package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/paybill/internal/constants"
	pbhttp "github.com/fivetwenty-io/paybill/internal/http"
)

// Static errors for err113 compliance.
var (
	ErrTokenRejected        = errors.New("token request rejected")
	ErrInvalidTokenResponse = errors.New("token response is missing access_token or expires_in")
)

// TokenSource performs a single credential exchange.
type TokenSource interface {
	Exchange(ctx context.Context) (*Token, error)
}

// oauthError is the error document of the token endpoint.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchanger trades client credentials for a bearer token.
type Exchanger struct {
	client   *pbhttp.Client
	clientID string
	secret   string
}

// NewExchanger creates an exchanger that posts to the token endpoint of client's base URL.
// The client should not retry on its own; the session owns the retry policy.
func NewExchanger(client *pbhttp.Client, clientID, secret string) *Exchanger {
	return &Exchanger{
		client:   client,
		clientID: clientID,
		secret:   secret,
	}
}

// Exchange performs one client_credentials exchange. Only a 200 response
// carrying access_token and expires_in is a success.
func (e *Exchanger) Exchange(ctx context.Context) (*Token, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(e.clientID + ":" + e.secret))

	resp, err := e.client.Do(ctx, &pbhttp.Request{
		Method: http.MethodPost,
		Path:   constants.APIPathToken,
		Headers: map[string]string{
			constants.HeaderAuthorization:  "Basic " + credentials,
			constants.HeaderAcceptLanguage: constants.DefaultLanguage,
		},
		Body: url.Values{"grant_type": {constants.GrantTypeClientCredentials}},
	})
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr oauthError

		_ = json.Unmarshal(resp.Body, &oauthErr)
		if oauthErr.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s: %s", ErrTokenRejected, resp.StatusCode, oauthErr.Error, oauthErr.ErrorDescription)
		}

		return nil, fmt.Errorf("%w: status %d", ErrTokenRejected, resp.StatusCode)
	}

	var token Token

	err = json.Unmarshal(resp.Body, &token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if token.AccessToken == "" || token.ExpiresIn <= 0 {
		return nil, ErrInvalidTokenResponse
	}

	return &token, nil
}
