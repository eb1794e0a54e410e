package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// memoryUserRepo is an in-memory UserRepository for tests.
type memoryUserRepo struct {
	users map[string]*model.User
}

func newMemoryUserRepo(users ...*model.User) *memoryUserRepo {
	m := &memoryUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func (m *memoryUserRepo) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	for _, u := range m.users {
		if u.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepo) UpdateProfile(_ context.Context, id string, nickname, profileImageKey *string) error {
	u, ok := m.users[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	if nickname != nil {
		u.Nickname = *nickname
	}
	if profileImageKey != nil {
		u.ProfileImageKey = profileImageKey
	}
	return nil
}

func (m *memoryUserRepo) UpdateStatus(_ context.Context, id string, status model.UserStatus) error {
	u, ok := m.users[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.Status = status
	return nil
}

type staticCredentials struct{}

func (staticCredentials) GetByUserAndProvider(_ context.Context, userID string, _ model.ProviderType) (*model.Credential, error) {
	return &model.Credential{UserID: userID, Email: userID + "@example.com", Provider: model.ProviderLocal}, nil
}

func activeUser(id, nickname string) *model.User {
	return &model.User{ID: id, Nickname: nickname, Role: domainauth.RoleUser, Status: model.UserStatusActive}
}

func newUserFixture(users ...*model.User) (*UserService, *memoryUserRepo, *memorySessionStore) {
	repo := newMemoryUserRepo(users...)
	sessions := newMemorySessionStore()
	svc := NewUserService(UserServiceOptions{
		Users:       repo,
		Credentials: staticCredentials{},
		Extras:      UserServiceExtras{Sessions: sessions},
	})
	return svc, repo, sessions
}

func TestUserService_GetProfile(t *testing.T) {
	svc, _, _ := newUserFixture(activeUser("user-1", "tester"))

	profile, err := svc.GetProfile(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
	assert.Equal(t, "user-1@example.com", profile.Email)
	assert.Equal(t, "tester", profile.Nickname)
	assert.Nil(t, profile.ProfileImageURL)
}

func TestUserService_GetProfile_DeletedUser(t *testing.T) {
	user := activeUser("user-1", "tester")
	user.Status = model.UserStatusDeleted
	svc, _, _ := newUserFixture(user)

	_, err := svc.GetProfile(context.Background(), "user-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserService_UpdateProfile_NicknameConflict(t *testing.T) {
	svc, _, _ := newUserFixture(activeUser("user-1", "tester"), activeUser("user-2", "taken"))

	taken := "taken"
	_, err := svc.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{Nickname: &taken})

	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestUserService_UpdateProfile_KeepingOwnNickname(t *testing.T) {
	svc, _, _ := newUserFixture(activeUser("user-1", "tester"))

	// Re-submitting the current nickname is not a conflict with yourself.
	same := "tester"
	key := "profile/user-1.png"
	user, err := svc.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{
		Nickname:        &same,
		ProfileImageKey: &key,
	})

	require.NoError(t, err)
	assert.Equal(t, "tester", user.Nickname)
	require.NotNil(t, user.ProfileImageKey)
	assert.Equal(t, key, *user.ProfileImageKey)
}

func TestUserService_Withdraw(t *testing.T) {
	svc, repo, sessions := newUserFixture(activeUser("user-1", "tester"))
	sessions.entries["user-1"] = "live-refresh-token"

	require.NoError(t, svc.Withdraw(context.Background(), "user-1"))

	assert.Equal(t, model.UserStatusDeleted, repo.users["user-1"].Status)
	assert.Empty(t, sessions.stored("user-1"))
}

func TestUserService_AuthorOf_MasksWithdrawnUsers(t *testing.T) {
	user := activeUser("user-1", "tester")
	user.Status = model.UserStatusDeleted
	svc, _, _ := newUserFixture(user)

	author, err := svc.AuthorOf(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", author.UserID)
	assert.Equal(t, "(withdrawn)", author.Nickname)
}
