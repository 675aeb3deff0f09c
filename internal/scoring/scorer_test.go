package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoicePoints(t *testing.T) {
	assert.Equal(t, 200, ChoicePoints(1.0))
	assert.Equal(t, 150, ChoicePoints(0.5))
	assert.Equal(t, 100, ChoicePoints(0.0))

	// out-of-range fractions clamp instead of over- or under-paying
	assert.Equal(t, 200, ChoicePoints(1.5))
	assert.Equal(t, 100, ChoicePoints(-0.3))
}

func TestEstimationPointsBands(t *testing.T) {
	cases := []struct {
		name    string
		value   float64
		correct float64
		want    int
	}{
		{"exact", 330, 330, 250},
		{"within 2 percent", 335, 330, 200},
		{"within 5 percent", 345, 330, 150},
		{"within 10 percent", 360, 330, 100},
		{"within 25 percent", 400, 330, 50},
		{"way off", 1000, 330, 0},
		{"undershoot scores the same", 300, 330, 100},
		{"negative correct value", -95, -100, 150},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, EstimationPoints(c.value, c.correct))
		})
	}
}

func TestEstimationPointsZeroCorrectValue(t *testing.T) {
	// only an exact zero guess scores when the answer is zero
	assert.Equal(t, 250, EstimationPoints(0, 0))
	assert.Equal(t, 0, EstimationPoints(0.1, 0))
	assert.Equal(t, 0, EstimationPoints(-5, 0))
}

func TestHotButtonSpeedBonus(t *testing.T) {
	assert.Equal(t, 500, HotButtonSpeedBonus(0.0))
	assert.Equal(t, 500, HotButtonSpeedBonus(0.25))
	assert.Equal(t, 300, HotButtonSpeedBonus(0.4))
	assert.Equal(t, 150, HotButtonSpeedBonus(0.75))
	assert.Equal(t, 50, HotButtonSpeedBonus(0.76))
	assert.Equal(t, 50, HotButtonSpeedBonus(1.0))
}
