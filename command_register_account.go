package accounts

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage is the validated input of the registration
// flow. AvatarFilePath must point at an already-spooled local file;
// CoverFilePath is optional.
type RegisterAccountMessage struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	AvatarFilePath string `json:"-"`
	CoverFilePath  string `json:"-"`

	OnResponse func(*AccountView) `json:"-"`
}

func (m RegisterAccountMessage) Type() string { return "account.register" }

// Validate runs every field rule and aggregates the failures; it does
// not short-circuit on the first violation.
func (m RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.FullName, validation.Required),
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Username, validation.Required, validation.Length(3, 0)),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&m.AvatarFilePath, validation.Required.Error("avatar file is required")),
	)
}

// RegisterAccountHandler orchestrates account creation across the two
// independently-failing resources involved: the media store and the
// account store. There is no shared transaction between them, so any
// failure after an upload compensates by deleting whatever was uploaded
// before the error surfaces.
//
// Step order is deliberate: uniqueness is checked before anything is
// uploaded, and uploads happen before the insert, which keeps the
// compensation window as small and cheap as possible.
type RegisterAccountHandler struct {
	repo   RepositoryManager
	media  MediaStore
	hasher PasswordHasher
	logger Logger
}

func NewRegisterAccountHandler(repo RepositoryManager, media MediaStore, hasher PasswordHasher) *RegisterAccountHandler {
	if hasher == nil {
		hasher = defaultHasher
	}
	return &RegisterAccountHandler{
		repo:   repo,
		media:  media,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (h *RegisterAccountHandler) WithLogger(l Logger) *RegisterAccountHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, msg RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, msg RegisterAccountMessage) error {
	if err := msg.Validate(); err != nil {
		return NewValidationError(validationFieldMap(err))
	}

	// optimistic pre-check; the store's unique constraints remain the
	// authoritative arbiter at insert time
	if _, err := h.repo.Accounts().GetByUsernameOrEmail(ctx, msg.Username, msg.Email); err == nil {
		return ErrAccountConflict
	} else if !goerrors.IsNotFound(err) {
		return NewPersistenceError(err, "failed to check account uniqueness")
	}

	// compensation guard: every uploaded asset is deleted unless the
	// account commits, including when the request context is cancelled
	// mid-flight
	var acquired []*UploadedAsset
	committed := false
	defer func() {
		if !committed {
			h.rollbackAssets(acquired)
		}
	}()

	avatar, err := h.media.Upload(ctx, msg.AvatarFilePath)
	if err != nil {
		return NewUploadError(err, "avatar")
	}
	acquired = append(acquired, avatar)

	coverURL := ""
	if msg.CoverFilePath != "" {
		cover, err := h.media.Upload(ctx, msg.CoverFilePath)
		if err != nil {
			return NewUploadError(err, "cover")
		}
		acquired = append(acquired, cover)
		coverURL = cover.URL
	}

	hash, err := h.hasher.HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return NewHashingError(err)
	}

	account := &Account{
		FullName:      msg.FullName,
		Email:         msg.Email,
		Username:      msg.Username,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Accounts().CreateTx(ctx, tx, account)
		if err != nil {
			return err
		}
		account = created
		return nil
	})

	if err != nil {
		if IsConflictError(err) {
			return ErrAccountConflict
		}
		return NewPersistenceError(err, "failed to persist account")
	}

	committed = true

	if msg.OnResponse != nil {
		msg.OnResponse(account.View())
	}

	return nil
}

// rollbackAssets issues one compensating delete per uploaded asset.
// Failures are logged and swallowed: best-effort compensation must never
// mask the error that triggered it, and must never crash the request.
// The deletes run on a detached context so a cancelled request still
// compensates.
func (h *RegisterAccountHandler) rollbackAssets(assets []*UploadedAsset) {
	if len(assets) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, asset := range assets {
		if err := h.media.Delete(ctx, asset.ProviderID); err != nil {
			h.logger.Error("compensating delete failed for asset %s: %v", asset.ProviderID, err)
		}
	}
}

// validationFieldMap flattens ozzo's aggregated errors into the
// field to message map carried in validation error metadata.
func validationFieldMap(err error) map[string]any {
	fields := map[string]any{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
		return fields
	}

	fields["input"] = err.Error()
	return fields
}
