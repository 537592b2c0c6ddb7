package model

type EventKind int

const (
	EventDropout EventKind = iota
	EventCaution
	EventRedFlag
	EventSafetyCar
	EventVirtualSafetyCar
)

func (k EventKind) String() string {
	switch k {
	case EventDropout:
		return "dropout"
	case EventCaution:
		return "caution"
	case EventRedFlag:
		return "redFlag"
	case EventSafetyCar:
		return "safetyCar"
	case EventVirtualSafetyCar:
		return "virtualSafetyCar"
	default:
		return "unknown"
	}
}

// TimelineEvent is a derived annotation for timeline widgets. Read-only once
// produced. EndFrame equals Frame for point events (dropouts).
type TimelineEvent struct {
	Kind     EventKind `json:"kind"`
	Frame    int       `json:"frame"`
	EndFrame int       `json:"endFrame"`
	Label    string    `json:"label"`
	Lap      int       `json:"lap,omitempty"`
}

// StatusInterval is an external flag/caution period. EndTime <= StartTime
// means the interval is open; the extractor applies a default duration.
type StatusInterval struct {
	Code      string  `json:"code"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}
