package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/racelogix/f1replay-engine-go/pkg/telemetry"
)

func stateWithDRS(code float64) EntityState {
	return EntityState{Fields: telemetry.Record{"drs": telemetry.Number(code)}}
}

func TestEntityStateDRSActive(t *testing.T) {
	for _, code := range []float64{10, 12, 14} {
		assert.True(t, stateWithDRS(code).DRSActive(), "code %v", code)
	}
	for _, code := range []float64{0, 1, 8, 11, 13} {
		assert.False(t, stateWithDRS(code).DRSActive(), "code %v", code)
	}

	var empty EntityState
	assert.False(t, empty.DRSActive())
}

func TestEntityStateChannelAccessors(t *testing.T) {
	state := EntityState{
		Pos: Point{X: 1, Y: 2},
		Fields: telemetry.Record{
			"Speed":     telemetry.Number(287.3),
			"nGear":     telemetry.Number(6),
			"throttle":  telemetry.Number(0.98),
			"brake":     telemetry.Bool(false),
			"LapNumber": telemetry.Number(12),
			"rel_dist":  telemetry.Number(0.25),
		},
	}

	speed, ok := state.Speed()
	assert.True(t, ok)
	assert.InDelta(t, 287.3, speed, 1e-9)

	gear, ok := state.Gear()
	assert.True(t, ok)
	assert.Equal(t, 6, gear)

	brake, ok := state.Brake()
	assert.True(t, ok)
	assert.InDelta(t, 0, brake, 1e-9)

	lap, ok := state.Lap()
	assert.True(t, ok)
	assert.Equal(t, 12, lap)

	rel, ok := state.RelDist()
	assert.True(t, ok)
	assert.InDelta(t, 0.25, rel, 1e-9)

	_, ok = state.DRS()
	assert.False(t, ok)
}
