package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues and validates the two token classes: short-lived
// access tokens carrying the profile claims set, and longer-lived
// refresh tokens carrying the subject only. Both are HS256 signed with
// the process-wide key.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

var _ TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance. A missing signing
// key is a configuration failure and must abort startup; it is never
// surfaced per request.
func NewTokenService(cfg Config, logger Logger) (*TokenService, error) {
	if cfg.GetSigningKey() == "" {
		return nil, ErrSigningKeyMissing
	}

	if logger == nil {
		logger = defLogger{}
	}

	accessTTL := cfg.GetAccessTokenTTL()
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}

	refreshTTL := cfg.GetRefreshTokenTTL()
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     cfg.GetIssuer(),
		audience:   jwt.ClaimStrings(cfg.GetAudience()),
		logger:     logger,
	}, nil
}

// IssueAccessToken mints a short-lived token with the subject id and the
// small claims set (username, email)
func (ts *TokenService) IssueAccessToken(account *Account) (string, error) {
	if account == nil {
		return "", errors.New("account must not be nil", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &AccessClaims{
		RegisteredClaims: ts.registered(account.ID.String(), now, ts.accessTTL),
		UID:              account.ID.String(),
		Username:         account.Username,
		Email:            account.Email,
		TokenUse:         tokenUseAccess,
	}

	return ts.sign(claims)
}

// IssueRefreshToken mints a longer-lived token carrying only the subject
func (ts *TokenService) IssueRefreshToken(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("account id must not be empty", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &RefreshClaims{
		RegisteredClaims: ts.registered(accountID, now, ts.refreshTTL),
		TokenUse:         tokenUseRefresh,
	}

	return ts.sign(claims)
}

// ValidateAccessToken parses and validates an access token. A failed
// signature, a past expiry, or a refresh token presented as an access
// token are all indistinguishable invalid tokens to the caller.
func (ts *TokenService) ValidateAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parse(raw, claims); err != nil {
		return nil, err
	}

	if claims.TokenUse != tokenUseAccess {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token
func (ts *TokenService) ValidateRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parse(raw, claims); err != nil {
		return nil, err
	}

	if claims.TokenUse != tokenUseRefresh {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (ts *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

func (ts *TokenService) parse(raw string, claims jwt.Claims) error {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
			WithTextCode(ErrTokenInvalid.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	if !token.Valid {
		ts.logger.Error("token validate could not decode or validate claims")
		return ErrTokenInvalid
	}

	return nil
}

func (ts *TokenService) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    ts.issuer,
		Subject:   subject,
		Audience:  aud,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
