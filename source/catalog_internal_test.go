package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.1.0", -1},
		{"1.10.0", "1.9.0", 1}, // semantic, not lexical
		{"0.18.3", "0.18.10", -1},
		// unparsable versions fall back to string comparison
		{"banana", "apple", 1},
		{"1.0.0", "1.0.0", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareVersions(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestReleaseSelection(t *testing.T) {
	latest := &modRelease{Version: "2.0.0"}
	summary := &modSummary{LatestRelease: latest, Releases: []modRelease{{Version: "9.0.0"}}}
	assert.Equal(t, latest, summary.release(), "latest_release wins when present")

	summary = &modSummary{Releases: []modRelease{
		{Version: "0.9.0"},
		{Version: "0.10.0"},
		{Version: "0.2.0"},
	}}
	assert.Equal(t, "0.10.0", summary.release().Version)

	summary = &modSummary{}
	assert.Nil(t, summary.release())
}
