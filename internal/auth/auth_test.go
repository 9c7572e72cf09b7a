package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := fastParams.Hash("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := fastParams.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")
}

func TestPasswordErrors(t *testing.T) {
	_, err := fastParams.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = VerifyPassword("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = VerifyPassword("x", "$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	_, err = VerifyPassword("x", "$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenRoundTrip(t *testing.T) {
	iss, err := NewIssuer(time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	tok, err := iss.CreateToken(id)
	require.NoError(t, err)

	got, err := iss.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenExpiry(t *testing.T) {
	iss, err := NewIssuer(time.Minute)
	require.NoError(t, err)
	start := time.Now()
	iss.now = func() time.Time { return start }

	tok, err := iss.CreateToken(uuid.New())
	require.NoError(t, err)

	iss.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = iss.ParseToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromOtherIssuerRejected(t *testing.T) {
	a, err := NewIssuer(0)
	require.NoError(t, err)
	b, err := NewIssuer(0)
	require.NoError(t, err)

	tok, err := a.CreateToken(uuid.New())
	require.NoError(t, err)
	_, err = b.ParseToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTTL(t *testing.T) {
	for _, s := range []string{"", "0", "never"} {
		d, err := ParseTTL(s)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTTL("72h")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)

	_, err = ParseTTL("soon")
	assert.Error(t, err)
}
