package passwords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := New(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		attempt  string
		want     bool
	}{
		{name: "same password", password: "secret1", attempt: "secret1", want: true},
		{name: "different password", password: "secret1", attempt: "secret2", want: false},
		{name: "case sensitive", password: "Secret1", attempt: "secret1", want: false},
		{name: "empty attempt", password: "secret1", attempt: "", want: false},
		{name: "unicode", password: "senhaçãо", attempt: "senhaçãо", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.Equal(t, tt.want, h.Verify(hash, tt.attempt))
		})
	}
}

func TestHasher_Salted(t *testing.T) {
	h := New(bcrypt.MinCost)

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify(first, "secret1"))
	assert.True(t, h.Verify(second, "secret1"))
}

func TestHasher_MalformedHash(t *testing.T) {
	h := New(bcrypt.MinCost)

	assert.False(t, h.Verify("", "secret1"))
	assert.False(t, h.Verify("not-a-bcrypt-hash", "secret1"))
}

func TestNew_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, New(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, New(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, New(bcrypt.MinCost).cost)
}
