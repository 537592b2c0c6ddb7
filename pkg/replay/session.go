package replay

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/geom"
	"github.com/racelogix/f1replay-engine-go/pkg/loader"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
	"github.com/racelogix/f1replay-engine-go/pkg/playback"
	"github.com/racelogix/f1replay-engine-go/pkg/processing/events"
	"github.com/racelogix/f1replay-engine-go/pkg/track"
	"github.com/racelogix/f1replay-engine-go/pkg/utils/broadcast"
	"github.com/racelogix/f1replay-engine-go/pkg/utils/cache"
	"github.com/racelogix/f1replay-engine-go/pkg/utils/cache/loadercache"
	"github.com/racelogix/f1replay-engine-go/pkg/view"
)

// EntityScreenState is one entity's renderable state for a tick.
type EntityScreenState struct {
	Screen    model.Point `json:"screen"`
	World     model.Point `json:"world"`
	Speed     float64     `json:"speed"`
	Gear      int         `json:"gear"`
	DRSActive bool        `json:"drsActive"`
}

// TickSnapshot is the per-tick output consumed by renderers.
type TickSnapshot struct {
	FrameIndex int                                  `json:"frameIndex"`
	PlayTime   float64                              `json:"playTime"`
	Speed      float64                              `json:"speed"`
	Paused     bool                                 `json:"paused"`
	Loading    bool                                 `json:"loading"`
	Entities   map[model.EntityID]EntityScreenState `json:"entities"`
}

// Session wires track geometry, viewport projection, the playback clock,
// the load gate and event extraction into one replay engine. Geometry is
// cached per reference lap id and rebuilt only when the lap changes. Not
// safe for concurrent use; drive it from a single tick loop.
type Session struct {
	builder   *track.Builder
	clock     *playback.Clock
	gate      *loader.Gate
	extractor *events.Extractor

	projectorOpts []view.Option
	projector     *view.Projector
	geometry      *model.TrackGeometry
	centerCurve   *geom.ResampledCurve
	geometryCache cache.Cache[string, model.TrackGeometry]
	laps          map[string]track.LapSample

	frames    []model.Frame
	intervals []model.StatusInterval
	totalLaps int
	events    []model.TimelineEvent
	selected  loader.SegmentKey

	width  float64
	height float64

	ticks chan TickSnapshot
	bcst  broadcast.BroadcastServer[TickSnapshot]
}

type Option func(*Session)

func WithTrackBuilder(b *track.Builder) Option {
	return func(s *Session) { s.builder = b }
}

func WithClock(c *playback.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithExtractor(e *events.Extractor) Option {
	return func(s *Session) { s.extractor = e }
}

// WithProjectorOptions sets the options used when a projector is created
// for a new reference lap.
func WithProjectorOptions(opts ...view.Option) Option {
	return func(s *Session) { s.projectorOpts = opts }
}

// WithTickBroadcast publishes every tick snapshot to subscribers, e.g. a
// HUD overlay or a recording sink. Snapshots are dropped rather than
// queued when no subscriber keeps up.
func WithTickBroadcast(sessionKey string) Option {
	return func(s *Session) {
		s.ticks = make(chan TickSnapshot, 1)
		s.bcst = broadcast.NewBroadcastServer(sessionKey, "ticks", s.ticks)
	}
}

func NewSession(provider loader.Provider, opts ...Option) *Session {
	ret := &Session{
		builder:   track.NewBuilder(),
		clock:     playback.NewClock(),
		gate:      loader.NewGate(provider),
		extractor: events.NewExtractor(),
		laps:      map[string]track.LapSample{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.geometryCache = loadercache.New(
		loadercache.WithLoader[string, model.TrackGeometry](
			func(lapID string) (*model.TrackGeometry, error) {
				return ret.builder.Build(ret.laps[lapID])
			}))
	ret.setupMetrics()
	return ret
}

func (s *Session) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("f1replay.session")
	if _, err := meter.Int64ObservableGauge(
		"f1replay.session.frame",
		metric.WithDescription("Current frame index"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.clock.FrameIndex()))
			return nil
		})); err != nil {
		log.Error("failed to register metric",
			log.String("metric", "f1replay.session.frame"),
			log.ErrorField(err))
	}
}

// SetReferenceLap installs the lap the track outline is derived from.
// Geometry for a previously seen lap id is reused.
func (s *Session) SetReferenceLap(lapID string, lap track.LapSample) error {
	if _, ok := s.laps[lapID]; !ok {
		s.laps[lapID] = lap
	}
	geo, err := s.geometryCache.Get(context.Background(), lapID)
	if err != nil {
		return err
	}
	s.geometry = geo
	s.centerCurve = geom.NewResampledCurve(geo.Centerline, len(geo.Centerline))
	s.projector = view.NewProjector(geo, s.projectorOpts...)
	if s.width > 0 && s.height > 0 {
		s.projector.Recompute(s.width, s.height)
	}
	return nil
}

// SetStatusIntervals installs the session's flag periods used for event
// extraction. Events are recomputed on the next segment install.
func (s *Session) SetStatusIntervals(intervals []model.StatusInterval, totalLaps int) {
	s.intervals = intervals
	s.totalLaps = totalLaps
	if s.frames != nil {
		s.events = s.extractor.Extract(s.frames, s.intervals, s.totalLaps)
	}
}

// Resize refits the viewport transform for a new screen size.
func (s *Session) Resize(width, height float64) {
	s.width = width
	s.height = height
	if s.projector != nil {
		s.projector.Recompute(width, height)
	}
}

// SetRotationDegrees changes the circuit rotation.
func (s *Session) SetRotationDegrees(deg float64) {
	if s.projector != nil {
		s.projector.SetRotationDegrees(deg)
	}
}

// Select switches playback to the given segment. A cached segment is
// installed synchronously and starts playing; otherwise a background fetch
// is issued and the result picked up by a later Tick. Fails with
// loader.ErrLoadInFlight when a fetch is already running.
func (s *Session) Select(ctx context.Context, key loader.SegmentKey) error {
	if seg, ok := s.gate.Cached(key); ok {
		s.selected = key
		s.installSegment(seg, true)
		return nil
	}
	if _, err := s.gate.TryLoad(ctx, key); err != nil {
		return err
	}
	s.selected = key
	return nil
}

func (s *Session) installSegment(seg *loader.Segment, autoStart bool) {
	s.frames = seg.Frames
	if err := s.clock.Load(seg.Timestamps(), len(seg.Frames), autoStart); err != nil {
		log.Warn("segment not installed", log.ErrorField(err))
		s.frames = nil
		return
	}
	s.events = s.extractor.Extract(s.frames, s.intervals, s.totalLaps)
}

// Tick consumes any finished fetch, advances the clock by dt seconds and
// returns the renderable snapshot for the current frame.
func (s *Session) Tick(dt float64) TickSnapshot {
	select {
	case res := <-s.gate.Results():
		switch {
		case res.Key != s.selected:
			// stale result from a superseded selection
			log.Debug("discarding stale segment result",
				log.String("entity", string(res.Key.Entity)),
				log.String("segment", res.Key.Segment))
		case res.Err == nil:
			s.installSegment(res.Segment, false)
		}
	default:
	}

	s.clock.Advance(dt)

	snap := TickSnapshot{
		FrameIndex: s.clock.FrameIndex(),
		PlayTime:   s.clock.PlayTime(),
		Speed:      s.clock.Speed(),
		Paused:     s.clock.Paused(),
		Loading:    s.gate.Loading(),
		Entities:   map[model.EntityID]EntityScreenState{},
	}
	if s.frames != nil && s.projector != nil {
		frame := s.frames[s.clock.FrameIndex()]
		for id, state := range frame.Entities {
			speed, _ := state.Speed()
			gear, _ := state.Gear()
			snap.Entities[id] = EntityScreenState{
				Screen:    s.projector.Project(state.Pos.X, state.Pos.Y),
				World:     state.Pos,
				Speed:     speed,
				Gear:      gear,
				DRSActive: state.DRSActive(),
			}
		}
	}
	if s.ticks != nil {
		select {
		case s.ticks <- snap:
		default:
		}
	}
	return snap
}

// PositionAtFraction returns the world position at the given completion
// fraction of the reference centerline. Used to place entities whose frames
// carry only a completion fraction instead of coordinates.
func (s *Session) PositionAtFraction(frac float64) (model.Point, bool) {
	if s.centerCurve == nil {
		return model.Point{}, false
	}
	return s.centerCurve.PointAtFraction(frac), true
}

// Events returns the timeline annotations for the installed segment.
func (s *Session) Events() []model.TimelineEvent { return s.events }

// Geometry returns the current track outline or nil.
func (s *Session) Geometry() *model.TrackGeometry { return s.geometry }

// Projector returns the viewport projector or nil before a reference lap
// is set.
func (s *Session) Projector() *view.Projector { return s.projector }

// Clock exposes the playback clock for transport controls.
func (s *Session) Clock() *playback.Clock { return s.clock }

// Loading reports whether a segment fetch is in flight.
func (s *Session) Loading() bool { return s.gate.Loading() }

// Subscribe returns a channel receiving tick snapshots. Requires the
// session to be created with WithTickBroadcast.
func (s *Session) Subscribe() <-chan TickSnapshot {
	if s.bcst == nil {
		return nil
	}
	return s.bcst.Subscribe()
}

// Close shuts down the tick broadcaster if one is active.
func (s *Session) Close() {
	if s.bcst != nil {
		s.bcst.Close()
	}
}
