package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.Contains(t, hash, "$2a$")

	// Соль случайная, хеши различаются
	hash2, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{name: "correct password", hash: hash, password: "secret1", want: true},
		{name: "wrong password", hash: hash, password: "secret2", want: false},
		{name: "empty password", hash: hash, password: "", want: false},
		{name: "no hash accepts nothing", hash: "", password: "secret1", want: false},
		{name: "no hash rejects empty password", hash: "", password: "", want: false},
		{name: "corrupted hash", hash: "not-a-bcrypt-hash", password: "secret1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.hash, tt.password))
		})
	}
}

func TestVerifyPassword_EmptyHashCostsAsMuchAsMismatch(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	// прогрев dummy хеша
	VerifyPassword("", "secret1")

	start := time.Now()
	assert.False(t, VerifyPassword(hash, "wrong-pass"))
	mismatch := time.Since(start)

	start = time.Now()
	assert.False(t, VerifyPassword("", "wrong-pass"))
	empty := time.Since(start)

	assert.Greater(t, empty, mismatch/10, "empty hash must still run bcrypt: mismatch=%s empty=%s", mismatch, empty)
}
