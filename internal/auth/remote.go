package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/vines-backend/internal/model"
)

// RemoteVerifier validates tokens by calling the identity provider's OpenID
// Connect userinfo endpoint with them. A 200 response means the token is
// live; its body is the caller's profile:
//
//	{"sub":"...","email":"...","name":"...","picture":"..."}
//
// golang.org/x/oauth2 attaches the bearer header. Each call builds a client
// around oauth2.StaticTokenSource: the token belongs to the caller and is
// never refreshed or stored here.
type RemoteVerifier struct {
	userinfoURL string
	httpClient  *http.Client
}

var _ Verifier = (*RemoteVerifier)(nil)

// NewRemoteVerifier creates a RemoteVerifier for userinfoURL. A nil
// httpClient gets a client with a 10 second timeout.
func NewRemoteVerifier(userinfoURL string, httpClient *http.Client) (*RemoteVerifier, error) {
	if userinfoURL == "" {
		return nil, errors.New("auth: userinfo URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteVerifier{userinfoURL: userinfoURL, httpClient: httpClient}, nil
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (model.Principal, error) {
	if token == "" {
		return model.Principal{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	// oauth2.NewClient uses the *http.Client stored under oauth2.HTTPClient
	// as its transport base.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return model.Principal{}, fmt.Errorf("auth: building userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return model.Principal{}, fmt.Errorf("auth: calling userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.Principal{}, fmt.Errorf("%w: identity provider returned %d", ErrInvalidToken, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return model.Principal{}, fmt.Errorf("auth: userinfo endpoint returned status %d", resp.StatusCode)
	}

	var p model.Principal
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return model.Principal{}, fmt.Errorf("auth: decoding userinfo response: %w", err)
	}
	if p.UserID == "" {
		return model.Principal{}, fmt.Errorf("%w: userinfo has no subject", ErrInvalidToken)
	}
	return p, nil
}
