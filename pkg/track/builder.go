package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/geom"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

// ErrInsufficientData signals that the reference lap has too few samples to
// derive geometry. Callers may retry with a different lap.
var ErrInsufficientData = errors.New("not enough samples to build track geometry")

// drsActiveCodes are the activation codes treated as "DRS open" when
// scanning the reference lap for zones.
var drsActiveCodes = map[int]struct{}{10: {}, 12: {}, 14: {}}

// LapSample holds the positional trace of one reference lap as parallel
// slices. DRS may be nil when the recording has no DRS channel.
type LapSample struct {
	X   []float64
	Y   []float64
	DRS []int
}

func (l LapSample) Len() int { return len(l.X) }

type Builder struct {
	trackWidth        float64
	boundarySamples   int
	centerlineSamples int
}

type Option func(*Builder)

func WithTrackWidth(width float64) Option {
	return func(b *Builder) { b.trackWidth = width }
}

func WithBoundarySamples(n int) Option {
	return func(b *Builder) { b.boundarySamples = n }
}

func WithCenterlineSamples(n int) Option {
	return func(b *Builder) { b.centerlineSamples = n }
}

func NewBuilder(opts ...Option) *Builder {
	ret := &Builder{
		trackWidth:        200,
		boundarySamples:   2000,
		centerlineSamples: 4000,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Build derives the track outline from one reference lap. The lap trace is
// treated as the centerline; boundaries are offset along the left normal of
// the finite-difference tangent at each sample.
func (b *Builder) Build(lap LapSample) (*model.TrackGeometry, error) {
	if len(lap.X) != len(lap.Y) {
		return nil, fmt.Errorf("coordinate slices differ in length: %d vs %d",
			len(lap.X), len(lap.Y))
	}
	if lap.Len() < 2 {
		return nil, fmt.Errorf("%w: got %d samples", ErrInsufficientData, lap.Len())
	}
	if lap.DRS != nil && len(lap.DRS) != lap.Len() {
		return nil, fmt.Errorf("drs slice length %d does not match %d samples",
			len(lap.DRS), lap.Len())
	}

	center := make([]model.Point, lap.Len())
	for i := range center {
		center[i] = model.Point{X: lap.X[i], Y: lap.Y[i]}
	}

	inner := make([]model.Point, lap.Len())
	outer := make([]model.Point, lap.Len())
	halfWidth := b.trackWidth / 2
	for i, p := range center {
		dx, dy := tangentAt(center, i)
		norm := math.Hypot(dx, dy)
		if norm == 0 {
			norm = 1.0
		}
		// left normal of the travel direction
		nx, ny := -dy/norm, dx/norm
		outer[i] = model.Point{X: p.X + nx*halfWidth, Y: p.Y + ny*halfWidth}
		inner[i] = model.Point{X: p.X - nx*halfWidth, Y: p.Y - ny*halfWidth}
	}

	// bounds come from the raw curves; resampling interpolates between
	// samples and can miss an extreme point
	geo := &model.TrackGeometry{
		Centerline: geom.Resample(center, b.centerlineSamples),
		Inner:      geom.Resample(inner, b.boundarySamples),
		Outer:      geom.Resample(outer, b.boundarySamples),
		DRSZones:   b.scanDRSZones(lap.DRS),
		Bounds:     computeBounds(center, inner, outer),
	}

	log.Debug("track geometry built",
		log.Int("samples", lap.Len()),
		log.Int("drsZones", len(geo.DRSZones)),
		log.Float("width", geo.Bounds.Width()),
		log.Float("height", geo.Bounds.Height()))

	return geo, nil
}

// tangentAt returns the finite-difference tangent at index i. Interior
// samples use the central difference, the endpoints a one-sided one.
func tangentAt(pts []model.Point, i int) (dx, dy float64) {
	switch {
	case i == 0:
		return pts[1].X - pts[0].X, pts[1].Y - pts[0].Y
	case i == len(pts)-1:
		return pts[i].X - pts[i-1].X, pts[i].Y - pts[i-1].Y
	default:
		return (pts[i+1].X - pts[i-1].X) / 2, (pts[i+1].Y - pts[i-1].Y) / 2
	}
}

// scanDRSZones collects contiguous runs of active DRS codes. A run still
// open at the end of the lap is emitted with the last sample as its end.
func (b *Builder) scanDRSZones(drs []int) []model.DRSZone {
	zones := []model.DRSZone{}
	start := -1
	for i, code := range drs {
		_, active := drsActiveCodes[code]
		switch {
		case active && start < 0:
			start = i
		case !active && start >= 0:
			zones = append(zones, model.DRSZone{StartIndex: start, EndIndex: i - 1})
			start = -1
		}
	}
	if start >= 0 {
		zones = append(zones, model.DRSZone{StartIndex: start, EndIndex: len(drs) - 1})
	}
	return lo.Filter(zones, func(z model.DRSZone, _ int) bool { return z.Valid() })
}

func computeBounds(curves ...[]model.Point) model.Bounds {
	ret := model.Bounds{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	for _, curve := range curves {
		for _, p := range curve {
			ret.XMin = min(ret.XMin, p.X)
			ret.XMax = max(ret.XMax, p.X)
			ret.YMin = min(ret.YMin, p.Y)
			ret.YMax = max(ret.YMax, p.Y)
		}
	}
	return ret
}
