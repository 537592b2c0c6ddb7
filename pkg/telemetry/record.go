package telemetry

// Record holds one entity's channel samples for a single frame.
type Record map[string]Value

// Resolve returns the value of the first candidate name that is present in
// the record. Zero and false are present; only Absent entries (or missing
// keys) are skipped. The second return value reports whether any candidate
// resolved.
func (r Record) Resolve(names ...string) (Value, bool) {
	for _, n := range names {
		if v, ok := r[n]; ok && v.Present() {
			return v, true
		}
	}
	return Absent, false
}

func (r Record) Float(names ...string) (float64, bool) {
	v, ok := r.Resolve(names...)
	if !ok {
		return 0, false
	}
	return v.Float()
}

func (r Record) Int(names ...string) (int, bool) {
	v, ok := r.Resolve(names...)
	if !ok {
		return 0, false
	}
	return v.Int()
}

// common alias lists for channels whose names changed across recordings

var (
	SpeedAliases    = []string{"speed", "Speed"}
	GearAliases     = []string{"gear", "nGear", "Gear"}
	ThrottleAliases = []string{"throttle", "Throttle"}
	BrakeAliases    = []string{"brake", "Brake"}
	DRSAliases      = []string{"drs", "DRS"}
	LapAliases      = []string{"lap", "LapNumber"}
	RelDistAliases  = []string{"rel_dist", "relDist"}
	DistAliases     = []string{"dist", "Distance"}
)
