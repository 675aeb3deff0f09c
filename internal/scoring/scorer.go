// Package scoring holds the deterministic point rules for all question kinds
// and the per-match statistics the final screen reports.
package scoring

import (
	"math"
)

const (
	// BasePoints is awarded for any correct choice answer
	BasePoints = 100
	// MaxSpeedBonus scales with the fraction of the answer window remaining
	MaxSpeedBonus = 100
)

// EstimationBand maps a maximum relative error to a point award
type EstimationBand struct {
	MaxError float64
	Points   int
}

// EstimationThresholds are the scoring bands for estimation questions,
// ordered tightest first. The band boundaries are a tuning knob.
var EstimationThresholds = []EstimationBand{
	{MaxError: 0.0, Points: 250},
	{MaxError: 0.02, Points: 200},
	{MaxError: 0.05, Points: 150},
	{MaxError: 0.10, Points: 100},
	{MaxError: 0.25, Points: 50},
}

// ChoicePoints returns the award for a correct choice answer given the
// fraction of the answer window that was still remaining at submit time.
func ChoicePoints(remainingFraction float64) int {
	if remainingFraction < 0 {
		remainingFraction = 0
	}
	if remainingFraction > 1 {
		remainingFraction = 1
	}
	return BasePoints + int(math.Round(remainingFraction*MaxSpeedBonus))
}

// EstimationPoints maps the relative error of a guess into a band award.
// A correct value of zero only scores on an exact guess.
func EstimationPoints(value, correct float64) int {
	var relErr float64
	if correct == 0 {
		if value == 0 {
			relErr = 0
		} else {
			return 0
		}
	} else {
		relErr = math.Abs(value-correct) / math.Abs(correct)
	}

	for _, band := range EstimationThresholds {
		if relErr <= band.MaxError {
			return band.Points
		}
	}
	return 0
}

// HotButtonSpeedBonus rewards early buzzes: the less of the question text was
// revealed at buzz time, the higher the bonus.
func HotButtonSpeedBonus(revealedPercent float64) int {
	switch {
	case revealedPercent <= 0.25:
		return 500
	case revealedPercent <= 0.50:
		return 300
	case revealedPercent <= 0.75:
		return 150
	default:
		return 50
	}
}
