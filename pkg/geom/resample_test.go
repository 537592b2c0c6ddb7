package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

func TestResampleEndpoints(t *testing.T) {
	pts := []model.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 4}}
	out := Resample(pts, 101)
	assert.Len(t, out, 101)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[len(pts)-1], out[len(out)-1])
}

func TestResampleStraightLine(t *testing.T) {
	pts := []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	out := Resample(pts, 5)
	assert.Len(t, out, 5)
	for i, p := range out {
		assert.InDelta(t, float64(i)*2.5, p.X, 1e-9)
		assert.InDelta(t, 0, p.Y, 1e-9)
	}
}

func TestResampleDegenerate(t *testing.T) {
	assert.Nil(t, Resample(nil, 10))
	assert.Nil(t, Resample([]model.Point{{X: 1, Y: 1}}, 0))

	out := Resample([]model.Point{{X: 1, Y: 2}}, 3)
	assert.Len(t, out, 3)
	for _, p := range out {
		assert.Equal(t, model.Point{X: 1, Y: 2}, p)
	}
}

func TestCumulativeDistance(t *testing.T) {
	pts := []model.Point{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}}
	cum, total := CumulativeDistance(pts)
	assert.Equal(t, []float64{0, 5, 11}, cum)
	assert.InDelta(t, 11, total, 1e-9)
}

func TestCumulativeDistanceMonotonic(t *testing.T) {
	pts := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 4, Y: 5}}
	cum, total := CumulativeDistance(pts)
	for i := 1; i < len(cum); i++ {
		assert.GreaterOrEqual(t, cum[i], cum[i-1])
	}
	assert.InDelta(t, cum[len(cum)-1], total, 1e-9)
}

func TestPointAtFraction(t *testing.T) {
	pts := []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	curve := NewResampledCurve(pts, 11)
	assert.Equal(t, model.Point{X: 0, Y: 0}, curve.PointAtFraction(0))
	assert.Equal(t, model.Point{X: 10, Y: 0}, curve.PointAtFraction(1))

	mid := curve.PointAtFraction(0.5)
	assert.InDelta(t, 5, mid.X, 1e-9)
	assert.InDelta(t, 0, mid.Y, 1e-9)
}

func TestIndexAtFractionClamps(t *testing.T) {
	curve := NewResampledCurve([]model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}, 4)
	assert.Equal(t, 0, curve.IndexAtFraction(-0.5))
	assert.Equal(t, 3, curve.IndexAtFraction(1.5))
}
