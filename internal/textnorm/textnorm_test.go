package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"Whitespace", "   \t", ""},
		{"NBSP", " Instagram\u00a0", "instagram"},
		{"Plain", "Facebook", "facebook"},
		{"Accent", "Diseño", "diseno"},
		{"AccentUpper", "PLANEACIÓN", "planeacion"},
		{"InnerSpacesKept", "Instagram  Reels", "instagram  reels"},
		{"OnlyNBSP", "\u00a0\u00a0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"Diseño", " TikTok ", "Publicado", "Blog "} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), s)
	}
}

func TestNormalizePtr(t *testing.T) {
	assert.Equal(t, "", NormalizePtr(nil))
	s := " Árbol "
	assert.Equal(t, "arbol", NormalizePtr(&s))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Instagram Reels", "Instagram"))
	assert.True(t, Contains("instagram", " INSTAGRAM "))
	assert.False(t, Contains("Facebook", "Instagram"))
	assert.False(t, Contains("Facebook", ""))
	assert.False(t, Contains("Facebook", " "))
}
