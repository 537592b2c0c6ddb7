package telemetry

// Telemetry schemas vary field names release-to-release (gear vs nGear and
// the like), and upstream records routinely omit channels. Value keeps the
// distinction between "absent" and falsy-but-valid data (0, false) that a
// plain float64 would lose.

type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindBool
	KindText
)

// Value is a typed union for a single telemetry channel sample.
// The zero value is absent.
type Value struct {
	kind Kind
	num  float64
	b    bool
	s    string
}

// Absent is the sentinel for a missing channel. Never confused with zero.
var Absent = Value{}

func Number(v float64) Value { return Value{kind: KindNumber, num: v} }
func Bool(v bool) Value      { return Value{kind: KindBool, b: v} }
func Text(v string) Value    { return Value{kind: KindText, s: v} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) Present() bool { return v.kind != KindAbsent }

// Float returns the numeric value. A bool converts to 0/1 so brake channels
// recorded as on/off flags still chart.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

func (v Value) Int() (int, bool) {
	f, ok := v.Float()
	return int(f), ok
}

func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindNumber:
		return v.num != 0, true
	default:
		return false, false
	}
}

func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}
