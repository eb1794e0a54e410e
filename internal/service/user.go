package service

import (
	"context"
	"log/slog"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
)

// UserRepository is the subset of the user repository the user service needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	UpdateProfile(ctx context.Context, id string, nickname, profileImageKey *string) error
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) error
}

// CredentialReader looks up the email backing a user's login.
type CredentialReader interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider model.ProviderType) (*model.Credential, error)
}

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users       UserRepository
	Credentials CredentialReader
	Extras      UserServiceExtras
}

// UserServiceExtras groups the optional collaborators of UserService.
type UserServiceExtras struct {
	Storage  ports.ObjectStorage
	Sessions ports.SessionStore
	Logger   *slog.Logger
}

// UserService serves profile reads and updates and account withdrawal.
type UserService struct {
	users       UserRepository
	credentials CredentialReader
	storage     ports.ObjectStorage
	sessions    ports.SessionStore
	logger      *slog.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	logger := opts.Extras.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:       opts.Users,
		credentials: opts.Credentials,
		storage:     opts.Extras.Storage,
		sessions:    opts.Extras.Sessions,
		logger:      logger,
	}
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	UserID          string  `json:"userId"`
	Email           string  `json:"email"`
	Nickname        string  `json:"nickname"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// GetProfile returns the user's profile with a presigned download URL for
// the profile image when one is set.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, apperrors.NotFound("user not found")
	}
	cred, err := s.credentials.GetByUserAndProvider(ctx, userID, model.ProviderLocal)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		UserID:   user.ID,
		Email:    cred.Email,
		Nickname: user.Nickname,
	}
	p.ProfileImageURL = s.resolveImageURL(ctx, user.ProfileImageKey)
	return p, nil
}

// UpdateProfileInput carries partial profile changes. Nil fields are left
// unchanged.
type UpdateProfileInput struct {
	Nickname        *string
	ProfileImageKey *string
}

// UpdateProfile applies profile changes after checking nickname rules and
// uniqueness.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	if in.Nickname != nil {
		if err := model.ValidateNickname(*in.Nickname); err != nil {
			return nil, err
		}
		current, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.Nickname != *in.Nickname {
			taken, err := s.users.ExistsByNickname(ctx, *in.Nickname)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperrors.Conflict("nickname already in use")
			}
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, in.Nickname, in.ProfileImageKey); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// Withdraw soft-deletes the account and tears down its session. The row
// stays so posts and comments keep a referenced author.
func (s *UserService) Withdraw(ctx context.Context, userID string) error {
	if err := s.users.UpdateStatus(ctx, userID, model.UserStatusDeleted); err != nil {
		return err
	}
	if _, err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Warn("session delete failed at withdrawal",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	return nil
}

// Author is the public author view attached to posts and comments.
type Author struct {
	UserID          string  `json:"userId"`
	Nickname        string  `json:"nickname"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// AuthorOf builds the public author view for a user id. Withdrawn authors
// keep their posts but render with a masked nickname.
func (s *UserService) AuthorOf(ctx context.Context, userID string) (Author, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Author{}, err
	}
	if user.IsDeleted() {
		return Author{UserID: user.ID, Nickname: "(withdrawn)"}, nil
	}
	return Author{
		UserID:          user.ID,
		Nickname:        user.Nickname,
		ProfileImageURL: s.resolveImageURL(ctx, user.ProfileImageKey),
	}, nil
}

func (s *UserService) resolveImageURL(ctx context.Context, key *string) *string {
	if key == nil || *key == "" || s.storage == nil {
		return nil
	}
	signed, err := s.storage.PresignGet(ctx, *key)
	if err != nil {
		// A broken image link should not take the profile down with it.
		s.logger.Warn("presign profile image failed", slog.Any("error", err))
		return nil
	}
	return &signed.URL
}
