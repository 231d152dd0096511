package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedProbability(t *testing.T) {
	p, err := ImpliedProbability(4)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p, 1e-12)

	for _, bad := range []float64{0, 1, -3, math.Inf(1), math.NaN()} {
		_, err := ImpliedProbability(bad)
		assert.ErrorIs(t, err, ErrInvalidOdds, "odds %v", bad)
	}
}

func TestEdgeAndExpectedValue(t *testing.T) {
	edge, err := Edge(0.35, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, edge, 1e-12)

	ev, err := ExpectedValue(0.35, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, ev, 1e-12)
}

func TestKelly(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		odds  float64
		want  float64
	}{
		{"positive value", 0.35, 4, (0.35*4 - 1) / 3},
		{"fair price", 0.25, 4, 0},
		{"negative value", 0.10, 4, 0},
		{"zero score", 0, 4, 0},
		{"certain", 1, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Kelly(tt.score, tt.odds)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := Kelly(0.5, 1)
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestOverround(t *testing.T) {
	assert.InDelta(t, 1.0, Overround([]float64{2, 4, 4}), 1e-12)
	assert.InDelta(t, 0.5, Overround([]float64{2, 0, 1}), 1e-12)
	assert.Zero(t, Overround(nil))
}
