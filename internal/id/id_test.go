package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("cs")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "cs-"))
	// 21-char NanoID after the prefix and separator
	assert.Len(t, got, len("cs-")+21)
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		got, err := Generate("cs")
		require.NoError(t, err)
		assert.False(t, seen[got], "duplicate id %s", got)
		seen[got] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		got := MustGenerate("changeset")
		assert.True(t, strings.HasPrefix(got, "changeset-"))
	})
}
