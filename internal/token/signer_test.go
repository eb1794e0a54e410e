package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
)

const testSecret = "dGhpcy1pcy1hLXRlc3Qtc2VjcmV0LWtleS0zMi1ieXRlcyE=" // 32+ bytes, base64

func newTestSigner(t *testing.T, now func() time.Time) *Signer {
	t.Helper()
	s, err := NewSigner(SignerOptions{
		SecretBase64: testSecret,
		AccessTTL:    30 * time.Minute,
		RefreshTTL:   14 * 24 * time.Hour,
		Now:          now,
	})
	require.NoError(t, err)
	return s
}

func TestNewSigner_RejectsShortSecret(t *testing.T) {
	_, err := NewSigner(SignerOptions{
		SecretBase64: base64.StdEncoding.EncodeToString([]byte("short")),
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	})
	require.Error(t, err)
}

func TestNewSigner_RejectsInvalidBase64(t *testing.T) {
	_, err := NewSigner(SignerOptions{SecretBase64: "not base64 !!!"})
	require.Error(t, err)
}

func TestSigner_IssueAndVerifyAccess(t *testing.T) {
	s := newTestSigner(t, nil)

	tok, err := s.IssueAccess("01ARZ3NDEKTSV4RRFFQ69G5FAV", domainauth.RoleUser)
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", claims.Subject)
	assert.Equal(t, string(domainauth.RoleUser), claims.Role)
	assert.False(t, claims.IsRefresh())
	assert.Empty(t, claims.ID)
}

func TestSigner_IssueRefreshCarriesTypeAndID(t *testing.T) {
	s := newTestSigner(t, nil)

	tok, err := s.IssueRefresh("user-1")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsRefresh())
	assert.NotEmpty(t, claims.ID, "refresh token must carry a unique jti")

	tok2, err := s.IssueRefresh("user-1")
	require.NoError(t, err)
	claims2, err := s.Verify(tok2)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, claims2.ID, "each refresh token gets a fresh jti")
}

func TestSigner_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2025, 10, 13, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	s := newTestSigner(t, func() time.Time { return clock })

	tok, err := s.IssueAccess("user-1", domainauth.RoleUser)
	require.NoError(t, err)

	// Just before expiry: valid.
	clock = issuedAt.Add(30*time.Minute - time.Second)
	_, err = s.Verify(tok)
	require.NoError(t, err)

	// At and after expiry: ErrExpired.
	clock = issuedAt.Add(30*time.Minute + time.Second)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)

	clock = issuedAt.Add(24 * time.Hour)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSigner_TamperedSignature(t *testing.T) {
	s := newTestSigner(t, nil)

	tok, err := s.IssueAccess("user-1", domainauth.RoleUser)
	require.NoError(t, err)

	// Flip the last character of the signature segment.
	last := tok[len(tok)-1]
	flipped := byte('A')
	if last == flipped {
		flipped = 'B'
	}
	tampered := tok[:len(tok)-1] + string(flipped)

	_, err = s.Verify(tampered)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestSigner_TamperedPayload(t *testing.T) {
	s := newTestSigner(t, nil)

	tok, err := s.IssueAccess("user-1", domainauth.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	// Re-encode a modified payload; signature no longer matches.
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), "user-1", "user-2", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = s.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestSigner_Malformed(t *testing.T) {
	s := newTestSigner(t, nil)

	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d", "%%%.%%%.%%%"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", tok)
	}
}

func TestSigner_WrongKey(t *testing.T) {
	s := newTestSigner(t, nil)
	other, err := NewSigner(SignerOptions{
		SecretBase64: base64.StdEncoding.EncodeToString([]byte("another-secret-key-that-is-32-bytes!")),
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	})
	require.NoError(t, err)

	tok, err := other.IssueAccess("user-1", domainauth.RoleUser)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}
