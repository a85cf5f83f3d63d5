package accounts_test

import (
	"context"
	"database/sql"
	"time"

	accounts "github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// testConfig implements accounts.Config for tests
type testConfig struct {
	signingKey string
	issuer     string
	audience   []string
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey: "test-signing-key",
		issuer:     "test-issuer",
		audience:   []string{"test:audience"},
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		bcryptCost: 4,
	}
}

func (c *testConfig) GetSigningKey() string             { return c.signingKey }
func (c *testConfig) GetIssuer() string                 { return c.issuer }
func (c *testConfig) GetAudience() []string             { return c.audience }
func (c *testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c *testConfig) GetBcryptCost() int                { return c.bcryptCost }
func (c *testConfig) GetMediaRegion() string            { return "us-east-1" }
func (c *testConfig) GetMediaEndpoint() string          { return "http://localhost:9000" }
func (c *testConfig) GetMediaBucket() string            { return "test-bucket" }
func (c *testConfig) GetMediaAccessKey() string         { return "test-access" }
func (c *testConfig) GetMediaSecretKey() string         { return "test-secret" }

// MockMediaStore implements accounts.MediaStore
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, localPath string) (*accounts.UploadedAsset, error) {
	args := m.Called(ctx, localPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.UploadedAsset), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, providerID string) error {
	args := m.Called(ctx, providerID)
	return args.Error(0)
}

// MockAccounts implements accounts.Accounts. The embedded generic
// repository satisfies the interface; anything the tests do not stub
// explicitly must never be called.
type MockAccounts struct {
	mock.Mock
	repository.Repository[*accounts.Account]
}

func (m *MockAccounts) GetByUsernameOrEmail(ctx context.Context, username, email string) (*accounts.Account, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) GetByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (*accounts.Account, error) {
	args := m.Called(ctx, tx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) Create(ctx context.Context, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockAccounts) StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	args := m.Called(ctx, tx, id, token)
	return args.Error(0)
}

func (m *MockAccounts) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRepositoryManager implements accounts.RepositoryManager. RunInTx
// invokes the callback with a zero transaction so handler logic under
// test runs against the mocked repositories.
type MockRepositoryManager struct {
	accounts *MockAccounts
	txErr    error
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		accounts: &MockAccounts{},
	}
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Accounts() accounts.Accounts {
	return m.accounts
}

// MockTokenIssuer implements accounts.TokenIssuer for failure injection
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueAccessToken(account *accounts.Account) (string, error) {
	args := m.Called(account)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) IssueRefreshToken(accountID string) (string, error) {
	args := m.Called(accountID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) ValidateAccessToken(token string) (*accounts.AccessClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.AccessClaims), args.Error(1)
}

func (m *MockTokenIssuer) ValidateRefreshToken(token string) (*accounts.RefreshClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.RefreshClaims), args.Error(1)
}

// captureLogger records error lines so tests can assert on best-effort
// logging without asserting on output format
type captureLogger struct {
	errorCalls int
	warnCalls  int
}

func (l *captureLogger) Debug(format string, args ...any) {}
func (l *captureLogger) Info(format string, args ...any)  {}
func (l *captureLogger) Warn(format string, args ...any)  { l.warnCalls++ }
func (l *captureLogger) Error(format string, args ...any) { l.errorCalls++ }
