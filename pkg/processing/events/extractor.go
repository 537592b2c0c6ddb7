package events

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

// defaultStatusKinds maps race-control status codes to event kinds.
var defaultStatusKinds = map[string]model.EventKind{
	"2": model.EventCaution,
	"4": model.EventSafetyCar,
	"5": model.EventRedFlag,
	"6": model.EventVirtualSafetyCar,
	"7": model.EventVirtualSafetyCar,
}

var kindLabels = map[model.EventKind]string{
	model.EventCaution:          "Yellow Flag",
	model.EventSafetyCar:        "Safety Car",
	model.EventRedFlag:          "Red Flag",
	model.EventVirtualSafetyCar: "Virtual Safety Car",
}

// Extractor derives timeline annotations from a loaded segment and the
// session's status intervals.
type Extractor struct {
	sampleStride  int
	sampleRate    float64
	statusKinds   map[string]model.EventKind
	defaultStatus time.Duration
}

type Option func(*Extractor)

// WithSampleStride sets how many frames lie between dropout probes.
func WithSampleStride(stride int) Option {
	return func(e *Extractor) {
		if stride > 0 {
			e.sampleStride = stride
		}
	}
}

// WithSampleRate sets the frame rate used to convert interval times to
// frame indices.
func WithSampleRate(rate float64) Option {
	return func(e *Extractor) {
		if rate > 0 {
			e.sampleRate = rate
		}
	}
}

// WithStatusKinds replaces the status code mapping.
func WithStatusKinds(kinds map[string]model.EventKind) Option {
	return func(e *Extractor) { e.statusKinds = kinds }
}

// WithDefaultStatusDuration sets the span assumed for intervals without an
// end time.
func WithDefaultStatusDuration(d time.Duration) Option {
	return func(e *Extractor) { e.defaultStatus = d }
}

func NewExtractor(opts ...Option) *Extractor {
	ret := &Extractor{
		sampleStride:  25,
		sampleRate:    25,
		statusKinds:   defaultStatusKinds,
		defaultStatus: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Extract scans the segment for entity dropouts and converts the status
// intervals into ranged events. Every disappeared entity yields a Dropout
// carrying its last known lap; comparing that lap against totalLaps is left
// to the consumer, a retirement on the final lap still gets its event. The
// result is sorted by start frame.
func (e *Extractor) Extract(
	frames []model.Frame,
	intervals []model.StatusInterval,
	totalLaps int,
) []model.TimelineEvent {
	ret := e.extractDropouts(frames)
	ret = append(ret, e.extractStatusEvents(intervals, len(frames))...)
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Frame < ret[j].Frame })
	log.Debug("timeline events extracted",
		log.Int("frames", len(frames)),
		log.Int("intervals", len(intervals)),
		log.Int("totalLaps", totalLaps),
		log.Int("events", len(ret)))
	return ret
}

// extractDropouts probes every sampleStride-th frame and reports entities
// that were present at the previous probe but are gone now. The event
// carries the entity's last known lap so retirements can be told apart
// from finishing.
func (e *Extractor) extractDropouts(frames []model.Frame) []model.TimelineEvent {
	ret := []model.TimelineEvent{}
	var prev []model.EntityID
	lastLap := map[model.EntityID]int{}

	for i := 0; i < len(frames); i += e.sampleStride {
		current := lo.Keys(frames[i].Entities)
		for id, state := range frames[i].Entities {
			if lap, ok := state.Lap(); ok {
				lastLap[id] = lap
			}
		}
		gone, _ := lo.Difference(prev, current)
		for _, id := range gone {
			ret = append(ret, model.TimelineEvent{
				Kind:     model.EventDropout,
				Frame:    i,
				EndFrame: i,
				Label:    fmt.Sprintf("%s out", id),
				Lap:      lastLap[id],
			})
		}
		prev = current
	}
	return ret
}

// extractStatusEvents converts timed intervals into frame ranges. Intervals
// without a usable end get the default duration; ranges ending before the
// segment are dropped and the rest clamped to it.
func (e *Extractor) extractStatusEvents(
	intervals []model.StatusInterval,
	frameCount int,
) []model.TimelineEvent {
	ret := []model.TimelineEvent{}
	for _, iv := range intervals {
		kind, ok := e.statusKinds[iv.Code]
		if !ok {
			continue
		}
		start := int(iv.StartTime * e.sampleRate)
		var end int
		if iv.EndTime > iv.StartTime {
			end = int(iv.EndTime * e.sampleRate)
		} else {
			end = start + int(e.defaultStatus.Seconds()*e.sampleRate)
		}
		if end <= 0 {
			continue
		}
		if frameCount > 0 && end > frameCount {
			end = frameCount
		}
		if start < 0 {
			start = 0
		}
		ret = append(ret, model.TimelineEvent{
			Kind:     kind,
			Frame:    start,
			EndFrame: end,
			Label:    kindLabels[kind],
		})
	}
	return ret
}
