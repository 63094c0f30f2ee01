package locations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLocations(t *testing.T) {
	cases := []struct {
		x, y string
		want string
	}{
		{"via Cavour", "Rome", "via Cavour Rome"},
		{"via Cavour 16 Rome", "Rome Italy", "via Cavour 16 Rome Italy"},
		{"via Cavour Rome", "via Cavour 16 Rome", "via Cavour 16 Rome"},
		{"Rome", "Rome", "Rome"},
		{"piazza Navona", "", "piazza Navona"},
		{"", "Milan", "Milan"},
		{"Colosseo", "Colosseum Rome", "Colosseo Rome"},
	}
	for _, tc := range cases {
		t.Run(tc.x+"|"+tc.y, func(t *testing.T) {
			got, err := MergeLocations(tc.x, tc.y)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMergeLocationsArity(t *testing.T) {
	_, err := MergeLocations("a")
	assert.ErrorIs(t, err, ErrMergeArity)

	_, err = MergeLocations("a", "b", "c")
	assert.ErrorIs(t, err, ErrMergeArity)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("Rome", "Rome"))
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	// lcs("Cavour", "Rome") = "o" -> 2*1/10
	assert.InDelta(t, 20.0, Ratio("Cavour", "Rome"), 1e-9)
	// case matters without normalization
	assert.Less(t, Ratio("rome", "ROME"), 80.0)
}

func TestBestMatchNormalizes(t *testing.T) {
	score, ok := bestMatch("ROME,", []string{"via", "Rome"}, SimilarityCutoff)
	assert.True(t, ok)
	assert.Equal(t, 100.0, score)

	_, ok = bestMatch("Italy", []string{"via", "Rome"}, SimilarityCutoff)
	assert.False(t, ok)
}

func TestIsUserLocation(t *testing.T) {
	assert.True(t, IsUserLocation("Somewhere near My Location please"))
	assert.True(t, IsUserLocation("where I am"))
	assert.False(t, IsUserLocation("piazza di Spagna"))
}
