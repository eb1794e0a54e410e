package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/token"
)

// UserWriter is the subset of the user repository the auth service needs.
type UserWriter interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
}

// CredentialStore is the subset of the credential repository the auth
// service needs.
type CredentialStore interface {
	Create(ctx context.Context, cred *model.Credential) error
	GetByEmail(ctx context.Context, email string) (*model.Credential, error)
	GetByUserAndProvider(ctx context.Context, userID string, provider model.ProviderType) (*model.Credential, error)
	UpdatePasswordHash(ctx context.Context, userID string, provider model.ProviderType, hash string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenSigner issues and verifies signed credentials.
type TokenSigner interface {
	IssueAccess(userID string, role domainauth.Role) (string, error)
	IssueRefresh(userID string) (string, error)
	Verify(tokenString string) (*token.Claims, error)
	RefreshTTL() time.Duration
}

// AuthRepositories groups the persistence dependencies of AuthService.
type AuthRepositories struct {
	Users       UserWriter
	Credentials CredentialStore
}

// AuthSecurity groups the credential-handling dependencies of AuthService.
type AuthSecurity struct {
	Signer   TokenSigner
	Hasher   ports.PasswordHasher
	Sessions ports.SessionStore
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Repos    AuthRepositories
	Security AuthSecurity
	Logger   *slog.Logger
}

// AuthService orchestrates sign-up, login, token rotation, and revocation.
// It is the only writer of the per-user refresh-token session entry.
type AuthService struct {
	users       UserWriter
	credentials CredentialStore
	signer      TokenSigner
	hasher      ports.PasswordHasher
	sessions    ports.SessionStore
	logger      *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       opts.Repos.Users,
		credentials: opts.Repos.Credentials,
		signer:      opts.Security.Signer,
		hasher:      opts.Security.Hasher,
		sessions:    opts.Security.Sessions,
		logger:      logger,
	}
}

// SignUpInput groups parameters for creating an account.
type SignUpInput struct {
	Email           string
	Password        string
	Nickname        string
	ProfileImageKey *string
}

const passwordMinLen = 8

func validateSignUp(in SignUpInput) error {
	if _, err := mail.ParseAddress(in.Email); err != nil || strings.ContainsAny(in.Email, " \t") {
		return apperrors.ValidationField("email", "invalid email address")
	}
	if len(in.Password) < passwordMinLen {
		return apperrors.ValidationField("password", "password must be at least 8 characters")
	}
	return model.ValidateNickname(in.Nickname)
}

// SignUp creates a user and its password credential. Duplicate email or
// nickname surfaces as a conflict.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	if taken, err := s.credentials.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.Conflict("email already in use")
	}
	if taken, err := s.users.ExistsByNickname(ctx, in.Nickname); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.Conflict("nickname already in use")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}

	user := &model.User{
		ID:              NewID(),
		Nickname:        strings.TrimSpace(in.Nickname),
		ProfileImageKey: in.ProfileImageKey,
		Role:            domainauth.RoleUser,
		Status:          model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	cred := &model.Credential{
		UserID:       user.ID,
		Email:        in.Email,
		Provider:     model.ProviderLocal,
		PasswordHash: hash,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	User   *model.User
	Tokens domainauth.TokenPair
}

// Login verifies the password credential and issues a fresh token pair.
// The refresh token is stored as the user's single live session; a store
// write failure is logged and swallowed so login still succeeds, at the
// cost of the first refresh failing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		// An unregistered email stays a not-found; only a wrong password
		// for a known email is an invalid-credentials failure.
		return nil, err
	}
	if err := s.hasher.Verify(password, cred.PasswordHash); err != nil {
		return nil, apperrors.InvalidCredentials("invalid email or password")
	}

	user, err := s.users.GetByID(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, apperrors.Forbidden("account is not active")
	}

	pair, err := s.issuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, user.ID, pair.RefreshToken, s.signer.RefreshTTL()); err != nil {
		s.logger.Warn("refresh token store write failed at login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Rotate exchanges a refresh token for a fresh token pair. The presented
// token must verify and match the stored session value exactly; after a
// successful rotation the old token is dead. A store write failure here is
// fatal: the session is torn down and the caller must log in again.
func (s *AuthService) Rotate(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.signer.Verify(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "invalid refresh token")
	}
	if !claims.IsRefresh() {
		return nil, apperrors.Unauthorized("not a refresh token")
	}
	userID := claims.Subject

	stored, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, apperrors.Unauthorized("no live session")
		}
		return nil, err
	}
	if stored != refreshToken {
		// The token verified but is not the live one: it was rotated away
		// or superseded by a newer login.
		return nil, apperrors.Unauthorized("refresh token superseded")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, apperrors.Forbidden("account is not active")
	}

	pair, err := s.issuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	// The write must land even if the client has gone away, otherwise the
	// session can be left holding a token we never handed out.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.sessions.Set(storeCtx, user.ID, pair.RefreshToken, s.signer.RefreshTTL()); err != nil {
		s.logger.Error("refresh token store write failed at rotation",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		s.Revoke(storeCtx, user.ID)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTokenPersistence, "persist rotated refresh token")
	}
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Revoke deletes the user's session entry. It never fails: revoking an
// absent session is a no-op, and a store error only gets logged since the
// client is discarding its tokens regardless.
func (s *AuthService) Revoke(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if _, err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Warn("refresh token store delete failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// CheckPassword verifies the user's current password, for re-authentication
// before sensitive profile changes.
func (s *AuthService) CheckPassword(ctx context.Context, userID, password string) error {
	cred, err := s.credentials.GetByUserAndProvider(ctx, userID, model.ProviderLocal)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.InvalidCredentials("password mismatch")
		}
		return err
	}
	if err := s.hasher.Verify(password, cred.PasswordHash); err != nil {
		return apperrors.InvalidCredentials("password mismatch")
	}
	return nil
}

// UpdatePassword replaces the stored password hash and revokes the live
// session so existing refresh tokens die with the old password.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < passwordMinLen {
		return apperrors.ValidationField("password", "password must be at least 8 characters")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}
	if err := s.credentials.UpdatePasswordHash(ctx, userID, model.ProviderLocal, hash); err != nil {
		return err
	}
	s.Revoke(ctx, userID)
	return nil
}

// CheckDuplicatedEmail reports whether the email is already registered.
func (s *AuthService) CheckDuplicatedEmail(ctx context.Context, email string) (bool, error) {
	return s.credentials.ExistsByEmail(ctx, email)
}

// CheckDuplicatedNickname reports whether the nickname is already taken.
func (s *AuthService) CheckDuplicatedNickname(ctx context.Context, nickname string) (bool, error) {
	return s.users.ExistsByNickname(ctx, nickname)
}

func (s *AuthService) issuePair(userID string, role domainauth.Role) (domainauth.TokenPair, error) {
	access, err := s.signer.IssueAccess(userID, role)
	if err != nil {
		return domainauth.TokenPair{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue access token")
	}
	refresh, err := s.signer.IssueRefresh(userID)
	if err != nil {
		return domainauth.TokenPair{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue refresh token")
	}
	return domainauth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
