package geom

import (
	"math"
	"sort"

	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

// Resample returns count points linearly interpolated along pts, with the
// curve parameterized by sample index. The first and last input points are
// reproduced exactly.
func Resample(pts []model.Point, count int) []model.Point {
	if count <= 0 || len(pts) == 0 {
		return nil
	}
	out := make([]model.Point, count)
	if len(pts) == 1 || count == 1 {
		for i := range out {
			out[i] = pts[0]
		}
		return out
	}
	step := float64(len(pts)-1) / float64(count-1)
	for i := range out {
		t := float64(i) * step
		lo := int(math.Floor(t))
		if lo >= len(pts)-1 {
			out[i] = pts[len(pts)-1]
			continue
		}
		frac := t - float64(lo)
		a, b := pts[lo], pts[lo+1]
		out[i] = model.Point{
			X: a.X + (b.X-a.X)*frac,
			Y: a.Y + (b.Y-a.Y)*frac,
		}
	}
	return out
}

// CumulativeDistance returns the running arc length at each point and the
// total length of the polyline.
func CumulativeDistance(pts []model.Point) ([]float64, float64) {
	if len(pts) == 0 {
		return nil, 0
	}
	dist := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		dist[i] = dist[i-1] + math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return dist, dist[len(dist)-1]
}

// ResampledCurve couples a resampled polyline with its arc-length table so
// positions can be looked up by distance fraction.
type ResampledCurve struct {
	Points      []model.Point
	CumDist     []float64
	TotalLength float64
}

func NewResampledCurve(pts []model.Point, count int) *ResampledCurve {
	resampled := Resample(pts, count)
	cum, total := CumulativeDistance(resampled)
	return &ResampledCurve{Points: resampled, CumDist: cum, TotalLength: total}
}

// IndexAtFraction returns the index of the first point whose cumulative
// distance reaches frac of the total length. frac is clamped to [0,1].
func (c *ResampledCurve) IndexAtFraction(frac float64) int {
	if len(c.Points) == 0 {
		return 0
	}
	if frac <= 0 || c.TotalLength <= 0 {
		return 0
	}
	if frac >= 1 {
		return len(c.Points) - 1
	}
	target := frac * c.TotalLength
	idx := sort.SearchFloat64s(c.CumDist, target)
	if idx > len(c.Points)-1 {
		idx = len(c.Points) - 1
	}
	return idx
}

// PointAtFraction returns the interpolated position at frac of the curve's
// total arc length.
func (c *ResampledCurve) PointAtFraction(frac float64) model.Point {
	if len(c.Points) == 0 {
		return model.Point{}
	}
	idx := c.IndexAtFraction(frac)
	if idx == 0 || idx >= len(c.Points) {
		return c.Points[min(idx, len(c.Points)-1)]
	}
	segLen := c.CumDist[idx] - c.CumDist[idx-1]
	if segLen <= 0 {
		return c.Points[idx]
	}
	target := frac * c.TotalLength
	t := (target - c.CumDist[idx-1]) / segLen
	a, b := c.Points[idx-1], c.Points[idx]
	return model.Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}
