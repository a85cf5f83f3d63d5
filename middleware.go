package accounts

import (
	"strings"

	"github.com/goliatone/go-router"
)

// ClaimsContextKey is the locals key where RequireAccessToken stores the
// validated claims for downstream handlers.
const ClaimsContextKey = "accounts:claims"

// RequireAccessToken guards a route behind a valid bearer access token.
// A missing, malformed, expired, or misused token short-circuits with
// the mapped JSON error; on success the claims land in request locals
// under ClaimsContextKey.
func RequireAccessToken(tokens TokenIssuer) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			raw := bearerToken(c.GetString(router.HeaderAuthorization, ""))
			if raw == "" {
				status, body := MapErrorResponse(ErrTokenInvalid)
				return c.JSON(status, body)
			}

			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				status, body := MapErrorResponse(err)
				return c.JSON(status, body)
			}

			c.Locals(ClaimsContextKey, claims)

			return next(c)
		}
	}
}

// GetAccessClaims returns the claims stored by RequireAccessToken
func GetAccessClaims(c router.Context) (*AccessClaims, bool) {
	claims, ok := c.Locals(ClaimsContextKey).(*AccessClaims)
	return claims, ok
}

func bearerToken(header string) string {
	const scheme = "Bearer"
	if len(header) > len(scheme)+1 &&
		strings.EqualFold(header[:len(scheme)], scheme) &&
		header[len(scheme)] == ' ' {
		return strings.TrimSpace(header[len(scheme):])
	}
	return ""
}
