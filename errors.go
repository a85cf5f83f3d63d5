package accounts

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

// Sentinel rich errors for the failure classes callers are expected to
// branch on. HTTP codes ride along so the controller layer can map them
// without re-deriving the taxonomy.
var (
	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password". The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
				WithTextCode("INVALID_CREDENTIALS").
				WithCode(errors.CodeUnauthorized)

	// ErrAccountConflict signals a duplicate username or email, whether
	// caught by the optimistic pre-check or by the store at insert time.
	ErrAccountConflict = errors.New("an account with that username or email already exists", errors.CategoryConflict).
				WithTextCode("ACCOUNT_EXISTS").
				WithCode(errors.CodeConflict)

	ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
				WithTextCode("ACCOUNT_NOT_FOUND").
				WithCode(errors.CodeNotFound)

	ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(errors.CodeUnauthorized)

	ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
			WithTextCode("TOKEN_INVALID").
			WithCode(errors.CodeUnauthorized)

	// ErrSigningKeyMissing is a configuration failure. It is returned by
	// the token service constructor so the process refuses to start,
	// rather than surfacing per request.
	ErrSigningKeyMissing = errors.New("token signing key is not configured", errors.CategoryInternal).
				WithTextCode("SIGNING_KEY_MISSING").
				WithCode(errors.CodeInternal)
)

// NewValidationError aggregates per-field failures into a single
// client-fixable error. The field map rides in the metadata so the
// controller can echo every violation back, not just the first.
func NewValidationError(fields map[string]any) *errors.Error {
	return errors.New("invalid input", errors.CategoryValidation).
		WithTextCode("VALIDATION_FAILED").
		WithCode(errors.CodeBadRequest).
		WithMetadata(fields)
}

// NewUploadError wraps a media store failure. Upstream dependency, so it
// maps to a 502-class response.
func NewUploadError(err error, asset string) *errors.Error {
	return errors.Wrap(err, errors.CategoryOperation, "media upload failed").
		WithTextCode("MEDIA_UPLOAD_FAILED").
		WithCode(http.StatusBadGateway).
		WithMetadata(map[string]any{"asset": asset})
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode("PERSISTENCE_FAILED").
		WithCode(errors.CodeInternal)
}

// NewHashingError wraps an entropy or resource failure inside the
// password hasher. Malformed input never takes this path.
func NewHashingError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, "password hashing failed").
		WithTextCode("HASHING_FAILED").
		WithCode(errors.CodeInternal)
}

// IsValidationError reports whether err is a client-fixable input error
func IsValidationError(err error) bool {
	return hasCategory(err, errors.CategoryValidation)
}

// IsConflictError reports whether err is a duplicate-identity error
func IsConflictError(err error) bool {
	return hasCategory(err, errors.CategoryConflict)
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return hasCategory(err, errors.CategoryAuth)
}

func hasCategory(err error, category errors.Category) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == category
}
