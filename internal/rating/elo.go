// internal/rating/elo.go
package rating

import "math"

const (
	// DefaultK is the scaling factor applied to (actual - expected).
	DefaultK = 30.0
	// InitialRating is assigned to new users and new deals.
	InitialRating = 1200.0
	// scale is the rating difference at which the favourite is expected to score ~91%.
	scale = 400.0
)

// Expected returns the expected score of side A against side B in [0..1].
func Expected(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/scale))
}

// Update applies one paired comparison between A and B and returns both new ratings.
//
// aWon is true when side A is deemed correct (for a trainer: the user solved the deal).
// k is not validated; callers normally pass DefaultK.
func Update(ratingA, ratingB float64, aWon bool, k float64) (float64, float64) {
	expectedA := Expected(ratingA, ratingB)
	expectedB := 1 - expectedA

	actualA := 0.0
	if aWon {
		actualA = 1.0
	}
	actualB := 1 - actualA

	return ratingA + k*(actualA-expectedA), ratingB + k*(actualB-expectedB)
}
