package view

import (
	"math"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

// Projector maps world coordinates to screen coordinates for one track
// geometry. The fit rotates the boundaries about the world bounds center,
// scales the rotated extents into the usable screen area and centers the
// result between the UI margins. Not safe for concurrent use.
type Projector struct {
	geo         *model.TrackGeometry
	leftMargin  float64
	rightMargin float64
	padding     float64
	rotation    float64

	screenW float64
	screenH float64

	transform   model.ViewportTransform
	screenInner []model.Point
	screenOuter []model.Point
}

type Option func(*Projector)

// WithMargins reserves horizontal screen space for UI panels.
func WithMargins(left, right float64) Option {
	return func(p *Projector) {
		p.leftMargin = left
		p.rightMargin = right
	}
}

// WithPadding sets the fraction of the usable area kept clear on each side.
func WithPadding(frac float64) Option {
	return func(p *Projector) { p.padding = frac }
}

// WithRotationDegrees sets the circuit rotation applied before fitting.
func WithRotationDegrees(deg float64) Option {
	return func(p *Projector) { p.rotation = deg * math.Pi / 180 }
}

func NewProjector(geo *model.TrackGeometry, opts ...Option) *Projector {
	ret := &Projector{
		geo:     geo,
		padding: 0.05,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Recompute refits the transform for a new viewport size and refreshes the
// cached screen-space boundary curves.
func (p *Projector) Recompute(width, height float64) {
	p.screenW = width
	p.screenH = height

	center := p.geo.Bounds.Center()
	sin, cos := math.Sincos(p.rotation)

	rotW, rotH := p.rotatedExtents(center, sin, cos)

	innerW := max(1.0, width-p.leftMargin-p.rightMargin)
	usableW := innerW * (1 - 2*p.padding)
	usableH := max(1.0, height) * (1 - 2*p.padding)

	scale := min(usableW/rotW, usableH/rotH)

	p.transform = model.ViewportTransform{
		Scale:       scale,
		TranslateX:  p.leftMargin + innerW/2,
		TranslateY:  height / 2,
		RotationRad: p.rotation,
	}
	p.screenInner = p.projectCurve(p.geo.Inner)
	p.screenOuter = p.projectCurve(p.geo.Outer)

	log.Debug("viewport transform recomputed",
		log.Float("width", width),
		log.Float("height", height),
		log.Float("scale", scale),
		log.Float("rotationRad", p.rotation))
}

// rotatedExtents measures the bounding box of both boundary curves after
// rotation about the world center, floored at 1.0.
func (p *Projector) rotatedExtents(center model.Point, sin, cos float64) (w, h float64) {
	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, curve := range [][]model.Point{p.geo.Inner, p.geo.Outer} {
		for _, pt := range curve {
			dx, dy := pt.X-center.X, pt.Y-center.Y
			rx := dx*cos - dy*sin
			ry := dx*sin + dy*cos
			xMin = min(xMin, rx)
			xMax = max(xMax, rx)
			yMin = min(yMin, ry)
			yMax = max(yMax, ry)
		}
	}
	return max(1.0, xMax-xMin), max(1.0, yMax-yMin)
}

// Project maps one world position through the current transform.
func (p *Projector) Project(x, y float64) model.Point {
	center := p.geo.Bounds.Center()
	sin, cos := math.Sincos(p.transform.RotationRad)
	dx, dy := x-center.X, y-center.Y
	rx := dx*cos - dy*sin
	ry := dx*sin + dy*cos
	return model.Point{
		X: rx*p.transform.Scale + p.transform.TranslateX,
		Y: ry*p.transform.Scale + p.transform.TranslateY,
	}
}

func (p *Projector) projectCurve(curve []model.Point) []model.Point {
	ret := make([]model.Point, len(curve))
	for i, pt := range curve {
		ret[i] = p.Project(pt.X, pt.Y)
	}
	return ret
}

// SetRotationDegrees changes the circuit rotation and refits if a viewport
// size is already known.
func (p *Projector) SetRotationDegrees(deg float64) {
	p.rotation = deg * math.Pi / 180
	if p.screenW > 0 && p.screenH > 0 {
		p.Recompute(p.screenW, p.screenH)
	}
}

// ScreenInner returns the cached screen-space inner boundary.
func (p *Projector) ScreenInner() []model.Point { return p.screenInner }

// ScreenOuter returns the cached screen-space outer boundary.
func (p *Projector) ScreenOuter() []model.Point { return p.screenOuter }

func (p *Projector) Transform() model.ViewportTransform { return p.transform }
