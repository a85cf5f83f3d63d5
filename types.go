package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UploadedAsset is what the media store hands back after a successful
// upload. ProviderID is the handle Delete expects; the asset is owned
// transiently by the registration flow until it is folded into an
// Account or compensated away.
type UploadedAsset struct {
	URL        string
	ProviderID string
}

// MediaStore is the two-method contract over the remote media provider.
// Both calls may fail independently of the rest of the system.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (*UploadedAsset, error)
	Delete(ctx context.Context, providerID string) error
}

// PasswordHasher hashes credentials one way and verifies them back
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenPair is the result of a successful authentication. The access
// token is never persisted; the refresh token is stored on the Account
// and superseded on every login or rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenIssuer mints and validates the two token classes
type TokenIssuer interface {
	IssueAccessToken(account *Account) (string, error)
	IssueRefreshToken(accountID string) (string, error)
	ValidateAccessToken(token string) (*AccessClaims, error)
	ValidateRefreshToken(token string) (*RefreshClaims, error)
}

// Config holds accounts options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetBcryptCost() int

	GetMediaRegion() string
	GetMediaEndpoint() string
	GetMediaBucket() string
	GetMediaAccessKey() string
	GetMediaSecretKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
