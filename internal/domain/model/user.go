package model

import (
	"strings"
	"time"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	// UserStatusDeleted marks a soft-deleted account. Rows are kept for
	// referential integrity; cleanup is a batch concern.
	UserStatusDeleted UserStatus = "DELETED"
)

// User is a member of the community.
type User struct {
	ID              string     `json:"id"              db:"id"`
	Nickname        string     `json:"nickname"        db:"nickname"`
	ProfileImageKey *string    `json:"profileImageKey" db:"profile_image_key"`
	Role            auth.Role  `json:"role"            db:"role"`
	Status          UserStatus `json:"status"          db:"status"`
	CreatedAt       time.Time  `json:"createdAt"       db:"created_at"`
	UpdatedAt       *time.Time `json:"updatedAt"       db:"updated_at"`
}

// IsDeleted reports whether the account was withdrawn.
func (u *User) IsDeleted() bool { return u.Status == UserStatusDeleted }

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool { return u.Status == UserStatusActive }

const (
	nicknameMinLen = 2
	nicknameMaxLen = 20
)

// ValidateNickname enforces the nickname constraints shared by sign-up and
// profile update.
func ValidateNickname(nickname string) error {
	n := strings.TrimSpace(nickname)
	if len([]rune(n)) < nicknameMinLen || len([]rune(n)) > nicknameMaxLen {
		return apperrors.ValidationField("nickname", "nickname must be 2-20 characters")
	}
	if strings.ContainsAny(n, " \t\n") {
		return apperrors.ValidationField("nickname", "nickname must not contain whitespace")
	}
	return nil
}

// ProviderType identifies how a credential record was established.
type ProviderType string

// ProviderLocal is the only provider in the current design; social login is
// a deferred extension.
const ProviderLocal ProviderType = "LOCAL"

// Credential is the password record keyed to a user identity, one row per
// user and provider.
type Credential struct {
	ID           int64        `db:"id"`
	UserID       string       `db:"user_id"`
	Email        string       `db:"email"`
	Provider     ProviderType `db:"provider"`
	PasswordHash string       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    *time.Time   `db:"updated_at"`
}
