package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify_Roundtrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	for _, pw := range []string{"hunter22!", "пароль-с-юникодом", strings.Repeat("x", 8)} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.True(t, h.Verify(pw, hash), "roundtrip for %q", pw)
		assert.False(t, h.Verify(pw+"a", hash), "altered password for %q", pw)
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	assert.NotPanics(t, func() {
		assert.False(t, h.Verify("password", ""))
		assert.False(t, h.Verify("password", "not-a-bcrypt-hash"))
		assert.False(t, h.Verify("password", "$2a$10$short"))
	})
}

func TestHash_TruncatesLongPasswords(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)
	prefix := strings.Repeat("p", MaxPasswordBytes)

	hash, err := h.Hash(prefix + "tail-one")
	require.NoError(t, err)

	assert.True(t, h.Verify(prefix+"tail-two", hash))
	assert.False(t, h.Verify(prefix[:MaxPasswordBytes-1], hash))
}

func TestNewPasswordHasher_DefaultCost(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
