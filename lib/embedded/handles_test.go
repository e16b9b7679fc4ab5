package embedded

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIssuesNonzeroTokens(t *testing.T) {
	r := New()
	token := handles.add(r)
	defer handles.remove(token)

	require.NotZero(t, token)
	assert.Same(t, r, handles.get(token))
}

func TestRegistryZeroTokenIsNull(t *testing.T) {
	assert.Nil(t, handles.get(0))
	assert.Nil(t, handles.remove(0))
}

func TestRegistryRemoveWithdrawsToken(t *testing.T) {
	r := New()
	token := handles.add(r)

	assert.Same(t, r, handles.remove(token))
	assert.Nil(t, handles.get(token), "withdrawn token fails closed")
	assert.Nil(t, handles.remove(token), "second removal returns nothing")
}

func TestRegistryTokensNeverReused(t *testing.T) {
	seen := make(map[uintptr]bool)
	for i := 0; i < 64; i++ {
		token := handles.add(New())
		assert.False(t, seen[token], "token %d reused", token)
		seen[token] = true
		handles.remove(token)
	}
}
