// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheap = Argon2Params{MemoryKiB: 8 * 1024, Time: 1, Threads: 1}

func TestPasswordHasher_HashAndCheck(t *testing.T) {
	h := NewPasswordHasher(cheap)

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, rehash, err := h.Check("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, _, err = h.Check("wrong horse", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	h := NewPasswordHasher(cheap)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_EmptyHashNeverMatches(t *testing.T) {
	h := NewPasswordHasher(cheap)

	ok, rehash, err := h.Check("", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestPasswordHasher_RehashOnCostChange(t *testing.T) {
	old := NewPasswordHasher(cheap)
	encoded, err := old.Hash("s3cret")
	require.NoError(t, err)

	stronger := NewPasswordHasher(Argon2Params{MemoryKiB: 16 * 1024, Time: 2, Threads: 1})

	ok, rehash, err := stronger.Check("s3cret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)
	assert.Contains(t, rehash, "m=16384,t=2,p=1")

	ok, again, err := stronger.Check("s3cret", rehash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, again)
}

func TestPasswordHasher_WrongPasswordNoRehash(t *testing.T) {
	encoded, err := NewPasswordHasher(cheap).Hash("s3cret")
	require.NoError(t, err)

	stronger := NewPasswordHasher(Argon2Params{MemoryKiB: 16 * 1024, Time: 1, Threads: 1})
	ok, rehash, err := stronger.Check("nope", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestPasswordHasher_Malformed(t *testing.T) {
	h := NewPasswordHasher(cheap)

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "not phc", encoded: "plaintext"},
		{name: "bcrypt", encoded: "$2a$10$abcdefghijklmnopqrstuv"},
		{name: "wrong algorithm", encoded: "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5"},
		{name: "wrong version", encoded: "$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$a2V5"},
		{name: "bad params", encoded: "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5"},
		{name: "bad salt", encoded: "$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5"},
		{name: "bad key", encoded: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _, err := h.Check("anything", tt.encoded)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}

func TestArgon2Params_Defaults(t *testing.T) {
	p := Argon2Params{Time: 3}.withDefaults()

	assert.Equal(t, uint32(3), p.Time)
	assert.Equal(t, DefaultArgon2.MemoryKiB, p.MemoryKiB)
	assert.Equal(t, DefaultArgon2.Threads, p.Threads)
	assert.Equal(t, DefaultArgon2.KeyLen, p.KeyLen)
	assert.Equal(t, DefaultArgon2.SaltLen, p.SaltLen)
}

func TestNewOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken(32)
	require.NoError(t, err)
	b, err := NewOpaqueToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestHashToken(t *testing.T) {
	assert.Equal(t,
		"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		HashToken("test"),
	)
	assert.Len(t, HashToken("anything"), 64)
}
