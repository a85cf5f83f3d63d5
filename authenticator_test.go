package accounts_test

import (
	"context"
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *accounts.TokenService {
	t.Helper()
	tokens, err := accounts.NewTokenService(newTestConfig(), nil)
	require.NoError(t, err)
	return tokens
}

func newStoredAccount(t *testing.T, password string) *accounts.Account {
	t.Helper()
	hash, err := accounts.NewBcryptHasher(4).HashPassword(password)
	require.NoError(t, err)
	return &accounts.Account{
		ID:           uuid.New(),
		Username:     "testuser",
		Email:        "test@example.com",
		FullName:     "Test User",
		AvatarURL:    "https://cdn.example.com/a.png",
		PasswordHash: hash,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hasher := accounts.NewBcryptHasher(4)

	t.Run("Successful login mints and persists a pair", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		repo.accounts.On("GetByUsernameOrEmail", ctx, "", account.Email).
			Return(account, nil).Once()

		var stored string
		repo.accounts.On("StoreRefreshToken", ctx, account.ID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { stored = args.String(2) }).
			Return(nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens).WithHasher(hasher)
		result, err := auther.Login(ctx, accounts.LoginInput{
			Email:    account.Email,
			Password: "password123",
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)

		// the returned refresh token is exactly the persisted one
		assert.Equal(t, stored, result.RefreshToken)

		// the access token verifies and points at the account
		claims, err := tokens.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, account.ID.String(), claims.AccountID())
		assert.Equal(t, account.Username, claims.Username)
		assert.Equal(t, account.Email, claims.Email)

		// the view never leaks secrets
		require.NotNil(t, result.Account)
		assert.Equal(t, account.Username, result.Account.Username)

		repo.accounts.AssertExpectations(t)
	})

	t.Run("Unknown account and wrong password are indistinguishable", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		repo.accounts.On("GetByUsernameOrEmail", ctx, "", "missing@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()
		repo.accounts.On("GetByUsernameOrEmail", ctx, "", account.Email).
			Return(account, nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens).WithHasher(hasher)

		_, errUnknown := auther.Login(ctx, accounts.LoginInput{
			Email:    "missing@example.com",
			Password: "password123",
		})
		_, errWrongPass := auther.Login(ctx, accounts.LoginInput{
			Email:    account.Email,
			Password: "wrongpassword",
		})

		require.Error(t, errUnknown)
		require.Error(t, errWrongPass)
		assert.Equal(t, errUnknown, errWrongPass)
		assert.ErrorIs(t, errUnknown, accounts.ErrInvalidCredentials)
		assert.True(t, accounts.IsAuthError(errUnknown))

		repo.accounts.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Neither email nor username fails validation", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)

		auther := accounts.NewAuthenticator(repo, tokens)
		_, err := auther.Login(ctx, accounts.LoginInput{Password: "password123"})

		require.Error(t, err)
		assert.True(t, accounts.IsValidationError(err))

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Contains(t, richErr.Metadata, "identifier")

		repo.accounts.AssertNotCalled(t, "GetByUsernameOrEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Refresh persistence failure returns no pair", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		repo.accounts.On("GetByUsernameOrEmail", ctx, "", account.Email).
			Return(account, nil).Once()
		repo.accounts.On("StoreRefreshToken", ctx, account.ID, mock.AnythingOfType("string")).
			Return(errors.New("connection reset")).Once()

		auther := accounts.NewAuthenticator(repo, tokens).WithHasher(hasher)
		result, err := auther.Login(ctx, accounts.LoginInput{
			Email:    account.Email,
			Password: "password123",
		})

		require.Error(t, err)
		assert.Nil(t, result)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "PERSISTENCE_FAILED", richErr.TextCode)
	})
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid token matching the stored slot rotates the pair", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		refresh, err := tokens.IssueRefreshToken(account.ID.String())
		require.NoError(t, err)
		account.RefreshToken = refresh

		repo.accounts.On("GetByID", ctx, account.ID.String()).Return(account, nil).Once()

		var stored string
		repo.accounts.On("StoreRefreshToken", ctx, account.ID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { stored = args.String(2) }).
			Return(nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens)
		result, err := auther.RefreshTokens(ctx, refresh)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, stored, result.RefreshToken)
		assert.NotEqual(t, refresh, result.RefreshToken)

		repo.accounts.AssertExpectations(t)
	})

	t.Run("Stale token not matching the slot is rejected", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		stale, err := tokens.IssueRefreshToken(account.ID.String())
		require.NoError(t, err)
		current, err := tokens.IssueRefreshToken(account.ID.String())
		require.NoError(t, err)

		// a later login replaced the slot
		account.RefreshToken = current

		repo.accounts.On("GetByID", ctx, account.ID.String()).Return(account, nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens)
		_, err = auther.RefreshTokens(ctx, stale)

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenInvalid)
		repo.accounts.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty slot rejects any refresh token", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		refresh, err := tokens.IssueRefreshToken(account.ID.String())
		require.NoError(t, err)

		repo.accounts.On("GetByID", ctx, account.ID.String()).Return(account, nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens)
		_, err = auther.RefreshTokens(ctx, refresh)

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenInvalid)
	})

	t.Run("Access token presented as refresh token is rejected", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		account := newStoredAccount(t, "password123")

		access, err := tokens.IssueAccessToken(account)
		require.NoError(t, err)

		auther := accounts.NewAuthenticator(repo, tokens)
		_, err = auther.RefreshTokens(ctx, access)

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenInvalid)
		repo.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Account deleted since issuance is rejected", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		id := uuid.New()

		refresh, err := tokens.IssueRefreshToken(id.String())
		require.NoError(t, err)

		repo.accounts.On("GetByID", ctx, id.String()).
			Return(nil, repository.NewRecordNotFound()).Once()

		auther := accounts.NewAuthenticator(repo, tokens)
		_, err = auther.RefreshTokens(ctx, refresh)

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenInvalid)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears the stored refresh token", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		id := uuid.New()

		repo.accounts.On("ClearRefreshToken", ctx, id).Return(nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens)
		require.NoError(t, auther.Logout(ctx, id.String()))

		repo.accounts.AssertExpectations(t)
	})

	t.Run("Malformed account id maps to not found", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)

		auther := accounts.NewAuthenticator(repo, tokens)
		err := auther.Logout(ctx, "not-a-uuid")

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
	})

	t.Run("LogoutByToken resolves the session from the token", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)
		id := uuid.New()

		refresh, err := tokens.IssueRefreshToken(id.String())
		require.NoError(t, err)

		repo.accounts.On("ClearRefreshToken", ctx, id).Return(nil).Once()

		auther := accounts.NewAuthenticator(repo, tokens)
		require.NoError(t, auther.LogoutByToken(ctx, refresh))

		repo.accounts.AssertExpectations(t)
	})

	t.Run("LogoutByToken rejects a garbage token", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		tokens := newTestTokenService(t)

		auther := accounts.NewAuthenticator(repo, tokens)
		err := auther.LogoutByToken(ctx, "not.a.jwt")

		require.Error(t, err)
		repo.accounts.AssertNotCalled(t, "ClearRefreshToken", mock.Anything, mock.Anything)
	})
}

func TestLoginInputValidate(t *testing.T) {
	t.Run("Email identity is enough", func(t *testing.T) {
		input := accounts.LoginInput{Email: "test@example.com", Password: "password123"}
		assert.NoError(t, input.Validate())
	})

	t.Run("Username identity is enough", func(t *testing.T) {
		input := accounts.LoginInput{Username: "testuser", Password: "password123"}
		assert.NoError(t, input.Validate())
	})

	t.Run("Short password fails", func(t *testing.T) {
		input := accounts.LoginInput{Email: "test@example.com", Password: "short"}
		require.Error(t, input.Validate())
	})

	t.Run("Violations aggregate", func(t *testing.T) {
		input := accounts.LoginInput{Email: "not-an-email"}
		err := input.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email")
		assert.Contains(t, err.Error(), "password")
	})
}
