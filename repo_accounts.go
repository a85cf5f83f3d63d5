package accounts

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var storeRefreshTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"refresh_token" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."id" = ?
RETURNING *;`

var clearRefreshTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"refresh_token" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."id" = ?
RETURNING *;`

// Accounts is the persistence contract the registration and login flows
// depend on. The generic repository surface rides along for callers that
// need criteria-based access.
type Accounts interface {
	repository.Repository[*Account]

	GetByUsernameOrEmail(ctx context.Context, username, email string) (*Account, error)
	GetByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

// GetByUsernameOrEmail finds an account matching either identity column.
// Inputs are normalized the same way inserts are, so the lookup and the
// unique constraints agree on canonical values.
func (a *accountsRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*Account, error) {
	return a.GetByUsernameOrEmailTx(ctx, a.db, username, email)
}

func (a *accountsRepo) GetByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ? OR ?TableAlias.email = ?", username, email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
					"email":    email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Account, error) {
	return a.GetByIDTx(ctx, a.db, id, criteria...)
}

func (a *accountsRepo) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*Account, error) {
	record := &Account{}
	q := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1)

	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

// CreateTx inserts the account. The store's unique constraints are the
// authoritative uniqueness arbiter; a violation here maps to the same
// conflict error the optimistic pre-check produces.
func (a *accountsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountConflict
		}
		return nil, err
	}

	return created, nil
}

// StoreRefreshToken overwrites the single refresh-token slot for the
// account. Any previously issued refresh token stops matching from this
// point on.
func (a *accountsRepo) StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.StoreRefreshTokenTx(ctx, a.db, id, token)
}

func (a *accountsRepo) StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	res, err := a.Repository.RawTx(ctx, tx, storeRefreshTokenSQL, token, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// ClearRefreshToken drops the stored refresh token, ending the account's
// active session
func (a *accountsRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, a.db, clearRefreshTokenSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.NormalizeIdentity()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// isUniqueViolation matches the driver-specific unique constraint
// messages for the engines we deploy on (postgres, mysql, sqlite).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
