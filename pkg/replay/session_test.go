package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/racelogix/f1replay-engine-go/pkg/loader"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
	"github.com/racelogix/f1replay-engine-go/pkg/telemetry"
	"github.com/racelogix/f1replay-engine-go/pkg/track"
	"github.com/racelogix/f1replay-engine-go/pkg/view"
)

type memProvider struct {
	frames []model.Frame
}

func (p *memProvider) FetchSegment(_ context.Context, _ loader.SegmentKey) (*loader.Segment, error) {
	return &loader.Segment{Frames: p.frames}, nil
}

func testFrames(n int) []model.Frame {
	frames := make([]model.Frame, n)
	for i := range frames {
		frames[i] = model.Frame{
			Timestamp: float64(i) * 0.04,
			Entities: map[model.EntityID]model.EntityState{
				"VER": {
					Pos: model.Point{X: float64(i), Y: 0},
					Fields: telemetry.Record{
						"speed": telemetry.Number(300),
						"nGear": telemetry.Number(7),
						"drs":   telemetry.Number(12),
					},
				},
			},
		}
	}
	return frames
}

func squareLap() track.LapSample {
	return track.LapSample{
		X: []float64{0, 100, 100, 0, 0},
		Y: []float64{0, 0, 100, 100, 0},
	}
}

func newTestSession(frames []model.Frame) *Session {
	return NewSession(&memProvider{frames: frames},
		WithTrackBuilder(track.NewBuilder(
			track.WithTrackWidth(10),
			track.WithBoundarySamples(50),
			track.WithCenterlineSamples(50))),
		WithProjectorOptions(view.WithMargins(100, 0)))
}

func waitLoaded(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Loading() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for segment fetch")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSetReferenceLapCachesGeometry(t *testing.T) {
	session := newTestSession(nil)
	assert.NoError(t, session.SetReferenceLap("lap12", squareLap()))
	first := session.Geometry()
	assert.NotNil(t, first)

	assert.NoError(t, session.SetReferenceLap("lap12", track.LapSample{}))
	assert.Same(t, first, session.Geometry())

	assert.NoError(t, session.SetReferenceLap("lap13", squareLap()))
	assert.NotSame(t, first, session.Geometry())
}

func TestSetReferenceLapPropagatesBuildErrors(t *testing.T) {
	session := newTestSession(nil)
	err := session.SetReferenceLap("bad", track.LapSample{X: []float64{0}, Y: []float64{0}})
	assert.ErrorIs(t, err, track.ErrInsufficientData)
}

func TestSelectFetchesInBackground(t *testing.T) {
	session := newTestSession(testFrames(10))
	assert.NoError(t, session.SetReferenceLap("lap1", squareLap()))
	session.Resize(800, 600)

	key := loader.SegmentKey{Entity: "VER", Segment: "race"}
	assert.NoError(t, session.Select(context.Background(), key))
	waitLoaded(t, session)

	snap := session.Tick(0.04)
	assert.True(t, snap.Paused)
	assert.Contains(t, snap.Entities, model.EntityID("VER"))
}

func TestSelectCachedAutoPlays(t *testing.T) {
	session := newTestSession(testFrames(10))
	assert.NoError(t, session.SetReferenceLap("lap1", squareLap()))
	session.Resize(800, 600)

	key := loader.SegmentKey{Entity: "VER", Segment: "race"}
	assert.NoError(t, session.Select(context.Background(), key))
	waitLoaded(t, session)
	session.Tick(0)

	assert.NoError(t, session.Select(context.Background(), key))
	snap := session.Tick(0.04)
	assert.False(t, snap.Paused)
	assert.Equal(t, 1, snap.FrameIndex)
}

func TestTickProjectsEntities(t *testing.T) {
	session := newTestSession(testFrames(10))
	assert.NoError(t, session.SetReferenceLap("lap1", squareLap()))
	session.Resize(800, 600)

	assert.NoError(t, session.Select(context.Background(), loader.SegmentKey{Entity: "VER"}))
	waitLoaded(t, session)
	session.Tick(0)
	session.Clock().Resume()

	snap := session.Tick(0.04)
	state := snap.Entities["VER"]
	assert.InDelta(t, 300, state.Speed, 1e-9)
	assert.Equal(t, 7, state.Gear)
	assert.True(t, state.DRSActive)
	assert.GreaterOrEqual(t, state.Screen.X, 100.0)
	assert.LessOrEqual(t, state.Screen.X, 800.0)
}

func TestTickWithoutSegment(t *testing.T) {
	session := newTestSession(nil)
	snap := session.Tick(0.04)
	assert.Empty(t, snap.Entities)
	assert.True(t, snap.Paused)
}

type blockingProvider struct {
	frames  []model.Frame
	blockOn model.EntityID
	block   chan struct{}
}

func (p *blockingProvider) FetchSegment(
	_ context.Context,
	key loader.SegmentKey,
) (*loader.Segment, error) {
	if key.Entity == p.blockOn {
		<-p.block
	}
	return &loader.Segment{Frames: p.frames}, nil
}

func TestTickDiscardsStaleResult(t *testing.T) {
	provider := &blockingProvider{
		frames:  testFrames(10),
		blockOn: "HAM",
		block:   make(chan struct{}),
	}
	defer close(provider.block)
	session := NewSession(provider)

	assert.NoError(t, session.Select(context.Background(), loader.SegmentKey{Entity: "VER"}))
	waitLoaded(t, session)

	// newer selection supersedes the finished but unconsumed result
	assert.NoError(t, session.Select(context.Background(), loader.SegmentKey{Entity: "HAM"}))

	snap := session.Tick(0.04)
	assert.Empty(t, snap.Entities)
	assert.Equal(t, 0, session.Clock().FrameCount())
}

func TestTickBroadcast(t *testing.T) {
	session := NewSession(&memProvider{frames: testFrames(10)},
		WithTickBroadcast("test-session"))
	defer session.Close()

	sub := session.Subscribe()
	assert.NotNil(t, sub)

	go session.Tick(0.04)

	select {
	case snap := <-sub:
		assert.True(t, snap.Paused)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestPositionAtFraction(t *testing.T) {
	session := newTestSession(nil)
	_, ok := session.PositionAtFraction(0.5)
	assert.False(t, ok)

	assert.NoError(t, session.SetReferenceLap("lap1", squareLap()))
	start, ok := session.PositionAtFraction(0)
	assert.True(t, ok)
	assert.InDelta(t, 0, start.X, 1e-9)
	assert.InDelta(t, 0, start.Y, 1e-9)

	half, ok := session.PositionAtFraction(0.5)
	assert.True(t, ok)
	assert.InDelta(t, 100, half.X, 1e-6)
	assert.InDelta(t, 100, half.Y, 1e-6)
}

func TestSubscribeWithoutBroadcaster(t *testing.T) {
	session := newTestSession(nil)
	assert.Nil(t, session.Subscribe())
}

func TestEventsRecomputedOnIntervalChange(t *testing.T) {
	session := newTestSession(testFrames(600))
	assert.NoError(t, session.SetReferenceLap("lap1", squareLap()))

	assert.NoError(t, session.Select(context.Background(), loader.SegmentKey{Entity: "VER"}))
	waitLoaded(t, session)
	session.Tick(0)
	assert.Empty(t, session.Events())

	session.SetStatusIntervals([]model.StatusInterval{
		{Code: "4", StartTime: 1, EndTime: 2},
	}, 0)
	events := session.Events()
	assert.Len(t, events, 1)
	assert.Equal(t, model.EventSafetyCar, events[0].Kind)
	assert.Equal(t, 25, events[0].Frame)
	assert.Equal(t, 50, events[0].EndFrame)
}
