package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/token"
)

// In-memory repositories backing a real service stack, so handler tests
// exercise the genuine auth semantics end to end.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]*model.User{}} }

func (m *memUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *user
	u.CreatedAt = time.Now()
	m.users[u.ID] = &u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func (m *memUserRepo) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) UpdateProfile(_ context.Context, id string, nickname, profileImageKey *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memUserRepo) UpdateStatus(_ context.Context, id string, status model.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.Status = status
	return nil
}

type memCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]*model.Credential // keyed by email
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{creds: map[string]*model.Credential{}}
}

func (m *memCredentialRepo) Create(_ context.Context, cred *model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[cred.Email]; ok {
		return apperrors.Conflict("email already in use")
	}
	c := *cred
	m.creds[c.Email] = &c
	return nil
}

func (m *memCredentialRepo) GetByEmail(_ context.Context, email string) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.creds[email]; ok {
		out := *c
		return &out, nil
	}
	return nil, apperrors.NotFound("credential not found")
}

func (m *memCredentialRepo) GetByUserAndProvider(_ context.Context, userID string, provider model.ProviderType) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.creds {
		if c.UserID == userID && c.Provider == provider {
			out := *c
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("credential not found")
}

func (m *memCredentialRepo) UpdatePasswordHash(_ context.Context, userID string, provider model.ProviderType, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.creds {
		if c.UserID == userID && c.Provider == provider {
			c.PasswordHash = hash
			return nil
		}
	}
	return apperrors.NotFound("credential not found")
}

func (m *memCredentialRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.creds[email]
	return ok, nil
}

type memSessions struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemSessions() *memSessions { return &memSessions{entries: map[string]string{}} }

func (m *memSessions) Set(_ context.Context, userID, refreshToken string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = refreshToken
	return nil
}

func (m *memSessions) Get(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[userID]
	if !ok {
		return "", ports.ErrSessionNotFound
	}
	return v, nil
}

func (m *memSessions) Delete(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[userID]
	delete(m.entries, userID)
	return ok, nil
}

type noopHasher struct{}

func (noopHasher) Hash(plaintext string) (string, error) { return "h:" + plaintext, nil }

func (noopHasher) Verify(plaintext, hash string) error {
	if "h:"+plaintext != hash {
		return errors.New("mismatch")
	}
	return nil
}

type routerFixture struct {
	handler  http.Handler
	signer   *token.Signer
	users    *memUserRepo
	sessions *memSessions
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	signer := newTestSigner(t, 30*time.Minute)
	users := newMemUserRepo()
	creds := newMemCredentialRepo()
	sessions := newMemSessions()

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Repos:    service.AuthRepositories{Users: users, Credentials: creds},
		Security: service.AuthSecurity{Signer: signer, Hasher: noopHasher{}, Sessions: sessions},
	})
	userSvc := service.NewUserService(service.UserServiceOptions{
		Users:       users,
		Credentials: creds,
		Extras:      service.UserServiceExtras{Sessions: sessions},
	})

	handler := NewRouter(RouterServices{
		Auth:  authSvc,
		Users: userSvc,
		Security: RouterSecurity{
			Verifier:   signer,
			RefreshTTL: signer.RefreshTTL(),
		},
	})
	return &routerFixture{handler: handler, signer: signer, users: users, sessions: sessions}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (f *routerFixture) signUp(t *testing.T, email, password, nickname string) string {
	t.Helper()
	rec := f.do(jsonRequest(http.MethodPost, "/auth/users",
		`{"email":"`+email+`","password":"`+password+`","nickname":"`+nickname+`"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.UserID
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatal("no refreshToken cookie in response")
	return nil
}

func TestAuthHandlers_SignUp(t *testing.T) {
	f := newRouterFixture(t)

	userID := f.signUp(t, "alice@example.com", "Passw0rd!", "alice")
	assert.NotEmpty(t, userID)

	// Same email again conflicts.
	rec := f.do(jsonRequest(http.MethodPost, "/auth/users",
		`{"email":"alice@example.com","password":"Passw0rd!","nickname":"other"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESOURCE_CONFLICT", decodeError(t, rec).Code)

	// Same nickname with a fresh email also conflicts.
	rec = f.do(jsonRequest(http.MethodPost, "/auth/users",
		`{"email":"alice2@example.com","password":"Passw0rd!","nickname":"alice"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandlers_LoginRotateReuse(t *testing.T) {
	f := newRouterFixture(t)
	f.signUp(t, "alice@example.com", "Passw0rd!", "alice")

	// Login issues both credentials.
	rec := f.do(jsonRequest(http.MethodPost, "/auth/tokens",
		`{"email":"alice@example.com","password":"Passw0rd!"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	authz := rec.Header().Get("Authorization")
	require.True(t, strings.HasPrefix(authz, "Bearer "))
	assert.Contains(t, rec.Body.String(), `"nickname":"alice"`)

	cookie := refreshCookieFrom(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, refreshCookiePath, cookie.Path)
	assert.Equal(t, int((14*24*time.Hour)/time.Second), cookie.MaxAge)

	// Rotation replaces both credentials.
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookie)
	rec2 := f.do(req)
	require.Equal(t, http.StatusNoContent, rec2.Code, rec2.Body.String())
	assert.True(t, strings.HasPrefix(rec2.Header().Get("Authorization"), "Bearer "))
	rotated := refreshCookieFrom(t, rec2)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// Replaying the pre-rotation cookie must fail.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookie)
	rec3 := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)

	// The post-rotation cookie still works.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(rotated)
	rec4 := f.do(req)
	assert.Equal(t, http.StatusNoContent, rec4.Code)
}

func TestAuthHandlers_LoginFailures(t *testing.T) {
	f := newRouterFixture(t)
	f.signUp(t, "alice@example.com", "Passw0rd!", "alice")

	rec := f.do(jsonRequest(http.MethodPost, "/auth/tokens",
		`{"email":"ghost@example.com","password":"Passw0rd!"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeError(t, rec).Code)

	rec = f.do(jsonRequest(http.MethodPost, "/auth/tokens",
		`{"email":"alice@example.com","password":"wrong"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESOURCE_CONFLICT", decodeError(t, rec).Code)
}

func TestAuthHandlers_RefreshWithoutCookie(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}

func TestAuthHandlers_SecondLoginSupersedesFirst(t *testing.T) {
	f := newRouterFixture(t)
	f.signUp(t, "alice@example.com", "Passw0rd!", "alice")

	login := func() *http.Cookie {
		rec := f.do(jsonRequest(http.MethodPost, "/auth/tokens",
			`{"email":"alice@example.com","password":"Passw0rd!"}`))
		require.Equal(t, http.StatusCreated, rec.Code)
		return refreshCookieFrom(t, rec)
	}
	first := login()
	second := login()

	// Only the second login's refresh token is live.
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(first)
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(second)
	assert.Equal(t, http.StatusNoContent, f.do(req).Code)
}

func TestAuthHandlers_Logout(t *testing.T) {
	f := newRouterFixture(t)
	userID := f.signUp(t, "alice@example.com", "Passw0rd!", "alice")

	rec := f.do(jsonRequest(http.MethodPost, "/auth/tokens",
		`{"email":"alice@example.com","password":"Passw0rd!"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	access := strings.TrimPrefix(rec.Header().Get("Authorization"), "Bearer ")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec2 := f.do(req)

	assert.Equal(t, http.StatusNoContent, rec2.Code)
	_, err := f.sessions.Get(context.Background(), userID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// Logging out with no credentials at all is still a 204.
	assert.Equal(t, http.StatusNoContent, f.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil)).Code)
}

func TestAuthHandlers_DuplicateChecks(t *testing.T) {
	f := newRouterFixture(t)
	f.signUp(t, "alice@example.com", "Passw0rd!", "alice")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/email?email=alice@example.com", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/auth/nickname?nickname=fresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":true`)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/auth/email", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandlers_WithdrawRequiresPassword(t *testing.T) {
	f := newRouterFixture(t)
	userID := f.signUp(t, "alice@example.com", "Passw0rd!", "alice")
	access, err := f.signer.IssueAccess(userID, domainauth.RoleUser)
	require.NoError(t, err)

	// Wrong password: 409 and the account stays active.
	req := jsonRequest(http.MethodPatch, "/users/me/withdraw", `{"password":"wrong"}`)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := f.do(req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	user, err := f.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, user.Status)

	// Correct password withdraws and kills the session.
	req = jsonRequest(http.MethodPatch, "/users/me/withdraw", `{"password":"Passw0rd!"}`)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = f.do(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	user, err = f.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusDeleted, user.Status)

	// A withdrawn account cannot log back in.
	rec = f.do(jsonRequest(http.MethodPost, "/auth/tokens",
		`{"email":"alice@example.com","password":"Passw0rd!"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserHandlers_Profile(t *testing.T) {
	f := newRouterFixture(t)
	userID := f.signUp(t, "alice@example.com", "Passw0rd!", "alice")
	access, err := f.signer.IssueAccess(userID, domainauth.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)
	assert.Contains(t, rec.Body.String(), `"nickname":"alice"`)

	// No token at all: the filter rejects with T001 before the handler.
	rec = f.do(httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeTokenEmpty, decodeError(t, rec).Code)
}
