package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateEqualRatings(t *testing.T) {
	newA, newB := Update(1200, 1200, true, DefaultK)
	assert.Equal(t, 1215.0, newA, "winner gains exactly K/2")
	assert.Equal(t, 1185.0, newB, "loser drops exactly K/2")

	newA, newB = Update(1500, 1500, false, 20)
	assert.Equal(t, 1490.0, newA)
	assert.Equal(t, 1510.0, newB)
}

func TestUpdateIsZeroSum(t *testing.T) {
	cases := []struct {
		a, b float64
		won  bool
		k    float64
	}{
		{1200, 1200, true, 30},
		{1400, 1100, true, 30},
		{1400, 1100, false, 30},
		{950.5, 2210.25, true, 16},
		{-300, 800, false, 64},
	}
	for _, c := range cases {
		newA, newB := Update(c.a, c.b, c.won, c.k)
		assert.InDelta(t, newA-c.a, -(newB - c.b), 1e-9, "a=%v b=%v won=%v", c.a, c.b, c.won)
	}
}

func TestUpdateFavouriteGainsLess(t *testing.T) {
	// a strong user solving an easy deal barely moves
	strongA, _ := Update(1600, 1200, true, DefaultK)
	weakA, _ := Update(1200, 1600, true, DefaultK)
	assert.Less(t, strongA-1600, weakA-1200)
	assert.Greater(t, strongA, 1600.0)
}

func TestExpected(t *testing.T) {
	assert.Equal(t, 0.5, Expected(1000, 1000))
	assert.InDelta(t, 1.0/11.0, Expected(1000, 1400), 1e-12)
	assert.InDelta(t, 1.0, Expected(1000, 1400)+Expected(1400, 1000), 1e-12)
}
