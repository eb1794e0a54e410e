package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost) // MinCost keeps the test fast

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.NoError(t, h.Verify("correct horse battery staple", hash))
	assert.ErrorIs(t, h.Verify("wrong password", hash), ErrMismatch)
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("password-one")
	require.NoError(t, err)
	b, err := h.Hash("password-one")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NoError(t, h.Verify("password-one", a))
	assert.NoError(t, h.Verify("password-one", b))
}

func TestBcryptHasher_CorruptHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	err := h.Verify("anything", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	h := NewBcryptHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
