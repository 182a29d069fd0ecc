package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("run")
	require.NoError(t, err)

	prefix, rest, ok := strings.Cut(got, "_")
	require.True(t, ok)
	assert.Equal(t, "run", prefix)
	assert.Len(t, rest, size)
	for _, r := range rest {
		assert.Contains(t, alphabet, string(r))
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for range 500 {
		id, err := Generate("run")
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
