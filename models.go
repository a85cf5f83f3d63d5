package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persistent user record. Username and email are globally
// unique and stored lowercased and trimmed; AvatarURL is never empty once
// the record exists; PasswordHash only ever holds a bcrypt digest.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string      `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string      `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName      string      `bun:"full_name,notnull" json:"full_name,omitempty"`
	AvatarURL     string      `bun:"avatar_url,notnull" json:"avatar_url,omitempty"`
	CoverImageURL string      `bun:"cover_image_url" json:"cover_image_url,omitempty"`
	PasswordHash  string      `bun:"password_hash,notnull" json:"-"`
	RefreshToken  string      `bun:"refresh_token,nullzero" json:"-"`
	WatchHistory  []uuid.UUID `bun:"watch_history,nullzero" json:"watch_history,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeIdentity lowercases and trims username and email before any
// lookup or insert so uniqueness is enforced on canonical values.
func (a *Account) NormalizeIdentity() *Account {
	a.Username = strings.ToLower(strings.TrimSpace(a.Username))
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return a
}

// AccountView is the redacted projection returned to callers. It never
// carries the password hash or the stored refresh token.
type AccountView struct {
	ID            string      `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	FullName      string      `json:"full_name"`
	AvatarURL     string      `json:"avatar_url"`
	CoverImageURL string      `json:"cover_image_url,omitempty"`
	WatchHistory  []uuid.UUID `json:"watch_history,omitempty"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `json:"updated_at,omitempty"`
}

// View returns the redacted projection of the account
func (a *Account) View() *AccountView {
	if a == nil {
		return nil
	}
	return &AccountView{
		ID:            a.ID.String(),
		Username:      a.Username,
		Email:         a.Email,
		FullName:      a.FullName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
		WatchHistory:  a.WatchHistory,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
