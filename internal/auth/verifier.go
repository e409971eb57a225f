// Package auth turns a bearer credential into a model.Principal.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The mobile client signs in with the identity provider (IdP) and gets a
//     bearer token. Sign-in itself never touches this server.
//  2. Every API call carries the token in "Authorization: Bearer <token>"
//     (or, for browser tools, in the "token" cookie).
//  3. RequireAuth hands the token to a Verifier, which returns the caller's
//     stable user ID plus whatever profile claims the IdP exposes.
//  4. The Principal is stored in the request context once; handlers read it
//     with PrincipalFromContext and pass it by value into the services.
//
// Two Verifiers exist:
//   - TokenService checks HS256 JWTs locally with a shared secret
//     (AUTH_MODE=local, also used by tests and development tooling).
//   - RemoteVerifier asks the IdP's userinfo endpoint (AUTH_MODE=remote).
package auth

import (
	"context"
	"errors"

	"github.com/sakif/vines-backend/internal/model"
)

// ErrInvalidToken is wrapped by every Verifier error that means "the
// credential is bad" as opposed to "the check could not be performed".
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier validates a bearer token and identifies its holder.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Principal, error)
}
