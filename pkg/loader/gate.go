package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

// ErrLoadInFlight is returned when a fetch is requested while another one
// is still running.
var ErrLoadInFlight = errors.New("a segment fetch is already in flight")

// SegmentKey identifies one entity's telemetry segment within a session.
type SegmentKey struct {
	Entity  model.EntityID
	Segment string
}

// Segment is a fetched block of frames. Cached marks segments served from
// the gate's cache instead of the provider.
type Segment struct {
	Frames []model.Frame
	Cached bool
}

// Timestamps returns the frame timestamps as a flat slice.
func (s *Segment) Timestamps() []float64 {
	ret := make([]float64, len(s.Frames))
	for i, f := range s.Frames {
		ret[i] = f.Timestamp
	}
	return ret
}

// Provider fetches segments from whatever backs the session, a file, an
// archive service or a live recorder.
type Provider interface {
	FetchSegment(ctx context.Context, key SegmentKey) (*Segment, error)
}

// Result is delivered on the gate's results channel when a fetch finishes.
type Result struct {
	RequestID uuid.UUID
	Key       SegmentKey
	Segment   *Segment
	Err       error
}

// Gate serializes segment fetches. At most one fetch runs at a time;
// requests issued while one is in flight are rejected rather than queued.
// Finished fetches land in the cache and on a latest-wins results channel.
type Gate struct {
	provider Provider
	loading  atomic.Bool
	results  chan Result

	mu    sync.Mutex
	cache map[SegmentKey]*Segment
}

func NewGate(provider Provider) *Gate {
	return &Gate{
		provider: provider,
		results:  make(chan Result, 1),
		cache:    map[SegmentKey]*Segment{},
	}
}

// Cached returns the segment for key if a previous fetch stored it.
func (g *Gate) Cached(key SegmentKey) (*Segment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seg, ok := g.cache[key]
	if !ok {
		return nil, false
	}
	return &Segment{Frames: seg.Frames, Cached: true}, true
}

// TryLoad starts a background fetch for key. It fails with ErrLoadInFlight
// when another fetch is already running. The returned id tags the matching
// Result.
func (g *Gate) TryLoad(ctx context.Context, key SegmentKey) (uuid.UUID, error) {
	if !g.loading.CompareAndSwap(false, true) {
		log.Debug("segment fetch rejected, another is in flight",
			log.String("entity", string(key.Entity)),
			log.String("segment", key.Segment))
		return uuid.Nil, ErrLoadInFlight
	}
	id := uuid.New()
	go g.fetch(ctx, id, key)
	return id, nil
}

func (g *Gate) fetch(ctx context.Context, id uuid.UUID, key SegmentKey) {
	defer g.loading.Store(false)

	seg, err := g.provider.FetchSegment(ctx, key)
	if err != nil {
		log.Error("segment fetch failed",
			log.String("entity", string(key.Entity)),
			log.String("segment", key.Segment),
			log.ErrorField(err))
	} else {
		g.mu.Lock()
		g.cache[key] = seg
		g.mu.Unlock()
	}
	g.publish(Result{RequestID: id, Key: key, Segment: seg, Err: err})
}

// publish replaces any unconsumed result so the channel always holds the
// most recent one.
func (g *Gate) publish(res Result) {
	for {
		select {
		case g.results <- res:
			return
		default:
			select {
			case <-g.results:
			default:
			}
		}
	}
}

// Loading reports whether a fetch is in flight.
func (g *Gate) Loading() bool { return g.loading.Load() }

// Results delivers finished fetches. The channel holds at most the latest
// result.
func (g *Gate) Results() <-chan Result { return g.results }
