package accounts

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LoginInput carries the credentials of a login attempt. At least one of
// Email or Username must be present.
type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate aggregates every violation, including the
// neither-identifier-provided case.
func (m LoginInput) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Email, is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 0)),
	)

	verrs, ok := err.(validation.Errors)
	if !ok && err != nil {
		return err
	}

	if m.Email == "" && m.Username == "" {
		if verrs == nil {
			verrs = validation.Errors{}
		}
		verrs["identifier"] = errors.New("email or username is required")
	}

	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// LoginResult is what a successful authentication returns: the freshly
// minted pair plus the redacted account view.
type LoginResult struct {
	TokenPair
	Account *AccountView `json:"user"`
}

// Authenticator orchestrates login, refresh-token rotation, and logout
type Authenticator struct {
	repo   RepositoryManager
	tokens TokenIssuer
	hasher PasswordHasher
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens TokenIssuer) *Authenticator {
	return &Authenticator{
		repo:   repo,
		tokens: tokens,
		hasher: defaultHasher,
		logger: defLogger{},
	}
}

func (s *Authenticator) WithLogger(l Logger) *Authenticator {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Authenticator) WithHasher(h PasswordHasher) *Authenticator {
	if h != nil {
		s.hasher = h
	}
	return s
}

// Login verifies the credentials and mints a fresh token pair. An
// unknown identifier and a wrong password produce the exact same error;
// callers cannot tell whether the account exists.
func (s *Authenticator) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := input.Validate(); err != nil {
		return nil, NewValidationError(validationFieldMap(err))
	}

	account, err := s.repo.Accounts().GetByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, NewPersistenceError(err, "failed to look up account")
	}

	if err := s.hasher.ComparePasswordAndHash(input.Password, account.PasswordHash); err != nil {
		s.logger.Debug("login password mismatch for account %s", account.ID.String())
		return nil, ErrInvalidCredentials
	}

	pair, err := s.generateAccessAndRefreshTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		TokenPair: *pair,
		Account:   account.View(),
	}, nil
}

// RefreshTokens rotates the pair: the presented refresh token must be
// valid and must match the single stored slot, then a new pair replaces
// it. Older refresh tokens stop working the moment a new one is stored.
func (s *Authenticator) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, ErrTokenInvalid
	}

	account, err := s.repo.Accounts().GetByID(ctx, id.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, NewPersistenceError(err, "failed to look up account")
	}

	if account.RefreshToken == "" || account.RefreshToken != refreshToken {
		return nil, ErrTokenInvalid
	}

	pair, err := s.generateAccessAndRefreshTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		TokenPair: *pair,
		Account:   account.View(),
	}, nil
}

// Logout clears the stored refresh token, ending the active session
func (s *Authenticator) Logout(ctx context.Context, accountID string) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return ErrAccountNotFound
	}

	if err := s.repo.Accounts().ClearRefreshToken(ctx, id); err != nil {
		if goerrors.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return NewPersistenceError(err, "failed to clear refresh token")
	}

	return nil
}

// LogoutByToken validates a presented refresh token and ends the
// session it belongs to
func (s *Authenticator) LogoutByToken(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}

	return s.Logout(ctx, claims.AccountID())
}

// generateAccessAndRefreshTokens mints a pair and persists the refresh
// token in the account's single slot. If persistence fails the minted
// tokens are discarded: a pair is never handed out without the refresh
// token being durably recorded first.
func (s *Authenticator) generateAccessAndRefreshTokens(ctx context.Context, account *Account) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefreshToken(account.ID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	if err := s.repo.Accounts().StoreRefreshToken(ctx, account.ID, refresh); err != nil {
		return nil, NewPersistenceError(err, "failed to persist refresh token")
	}

	account.RefreshToken = refresh

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
