package model

// Point is a 2D coordinate, world or screen space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned bounding box in world space.
type Bounds struct {
	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`
}

// Width returns the horizontal extent, floored at 1.0 so degenerate
// geometry never produces a zero divisor downstream.
func (b Bounds) Width() float64 {
	return max(1.0, b.XMax-b.XMin)
}

func (b Bounds) Height() float64 {
	return max(1.0, b.YMax-b.YMin)
}

// Center returns the bounding-box center.
func (b Bounds) Center() Point {
	return Point{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// Corners returns the four corners of the box.
func (b Bounds) Corners() [4]Point {
	return [4]Point{
		{X: b.XMin, Y: b.YMin},
		{X: b.XMax, Y: b.YMin},
		{X: b.XMax, Y: b.YMax},
		{X: b.XMin, Y: b.YMax},
	}
}

// DRSZone is a contiguous index range into the reference lap's samples where
// the DRS activation code was in the active set.
type DRSZone struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// Valid reports whether the zone has usable bounds.
func (z DRSZone) Valid() bool {
	return z.StartIndex >= 0 && z.EndIndex >= z.StartIndex
}

// MapTo translates the zone's raw-lap indices into the index space of a
// curve resampled to resampledLen points, clamped to the valid range.
// Renderers use this to slice boundary curves for zone highlights.
func (z DRSZone) MapTo(rawLen, resampledLen int) DRSZone {
	if rawLen <= 0 || resampledLen <= 0 {
		return DRSZone{}
	}
	scale := func(idx int) int {
		mapped := idx * resampledLen / rawLen
		if mapped < 0 {
			return 0
		}
		if mapped > resampledLen-1 {
			return resampledLen - 1
		}
		return mapped
	}
	return DRSZone{StartIndex: scale(z.StartIndex), EndIndex: scale(z.EndIndex)}
}

// TrackGeometry is the drivable track outline derived from one reference
// lap. Immutable once built; rebuilt only when the reference lap changes.
type TrackGeometry struct {
	Centerline []Point   `json:"centerline"`
	Inner      []Point   `json:"inner"`
	Outer      []Point   `json:"outer"`
	Bounds     Bounds    `json:"bounds"`
	DRSZones   []DRSZone `json:"drsZones"`
}
