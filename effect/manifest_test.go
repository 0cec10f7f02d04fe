package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const warmManifest = `
name: warm
filters:
  - type: brightness
    amount: 0.1
  - type: blur
    radius: 1.5
audio:
  - cue.opus
methods:
  setWarmth: {filter: 0, param: amount}
  setSoftness: {filter: 1, param: radius}
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(warmManifest))
	require.NoError(t, err)

	assert.Equal(t, "warm", m.Name)
	require.Len(t, m.Filters, 2)
	assert.Equal(t, FilterSpec{Type: "brightness", Amount: 0.1}, m.Filters[0])
	assert.Equal(t, 1.5, m.Filters[1].Radius)
	assert.Equal(t, []string{"cue.opus"}, m.Audio)
	assert.Equal(t, MethodSpec{Filter: 0, Param: "amount"}, m.Methods["setWarmth"])
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"not_yaml", "name: [unterminated"},
		{"missing_name", "filters: []"},
		{"unknown_key", "name: x\ncolour: red"},
		{"unknown_filter", "name: x\nfilters:\n  - type: sparkle"},
		{"amount_out_of_range", "name: x\nfilters:\n  - type: contrast\n    amount: 4"},
		{"negative_radius", "name: x\nfilters:\n  - type: blur\n    radius: -1"},
		{"method_index", "name: x\nfilters: []\nmethods:\n  f: {filter: 2, param: amount}"},
		{"method_param", "name: x\nfilters:\n  - type: invert\nmethods:\n  f: {filter: 0, param: hue}"},
		{"empty_cue", "name: x\naudio:\n  - ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.manifest))
			assert.ErrorIs(t, err, ErrInvalidManifest)
			assert.ErrorIs(t, err, ErrEffect)
		})
	}
}

func TestCache(t *testing.T) {
	c := NewCache(2)

	m1, d1, err := c.Parse([]byte(warmManifest))
	require.NoError(t, err)
	m2, d2, err := c.Parse([]byte(warmManifest))
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, d1, d2)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	_, _, err = c.Parse([]byte("name: a"))
	require.NoError(t, err)
	_, _, err = c.Parse([]byte("name: b"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), "oldest entry evicted")

	_, _, err = c.Parse([]byte("name: ["))
	assert.Error(t, err)
	assert.Equal(t, 2, c.Len(), "failures are not cached")

	m3, _, err := c.Parse([]byte(warmManifest))
	require.NoError(t, err)
	assert.NotSame(t, m1, m3)
}
