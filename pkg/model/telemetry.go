package model

import (
	"github.com/racelogix/f1replay-engine-go/pkg/telemetry"
)

type EntityID string

// EntityState carries one entity's telemetry for a single frame. Position is
// kept typed; the remaining channels stay in the record so schema variations
// are handled in one place.
type EntityState struct {
	Pos    Point            `json:"pos"`
	Fields telemetry.Record `json:"fields"`
}

func (s EntityState) Speed() (float64, bool) {
	return s.Fields.Float(telemetry.SpeedAliases...)
}

func (s EntityState) Gear() (int, bool) {
	return s.Fields.Int(telemetry.GearAliases...)
}

func (s EntityState) Throttle() (float64, bool) {
	return s.Fields.Float(telemetry.ThrottleAliases...)
}

func (s EntityState) Brake() (float64, bool) {
	return s.Fields.Float(telemetry.BrakeAliases...)
}

func (s EntityState) DRS() (int, bool) {
	return s.Fields.Int(telemetry.DRSAliases...)
}

func (s EntityState) Lap() (int, bool) {
	return s.Fields.Int(telemetry.LapAliases...)
}

// RelDist is the completion fraction in [0,1].
func (s EntityState) RelDist() (float64, bool) {
	return s.Fields.Float(telemetry.RelDistAliases...)
}

// drsActiveCodes are the DRS state codes meaning "open".
var drsActiveCodes = map[int]struct{}{10: {}, 12: {}, 14: {}}

// DRSActive reports whether the entity's DRS code is in the active set.
func (s EntityState) DRSActive() bool {
	code, ok := s.DRS()
	if !ok {
		return false
	}
	_, active := drsActiveCodes[code]
	return active
}

// Frame is one timestamped snapshot of all tracked entities.
type Frame struct {
	Timestamp float64                  `json:"timestamp"`
	Entities  map[EntityID]EntityState `json:"entities"`
}
