package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

type stubProvider struct {
	mu      sync.Mutex
	block   chan struct{}
	fetches int
	err     error
}

func (p *stubProvider) FetchSegment(_ context.Context, key SegmentKey) (*Segment, error) {
	p.mu.Lock()
	p.fetches++
	p.mu.Unlock()
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	return &Segment{Frames: []model.Frame{
		{Timestamp: 0},
		{Timestamp: 0.04},
	}}, nil
}

func (p *stubProvider) fetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func waitResult(t *testing.T, gate *Gate) Result {
	t.Helper()
	select {
	case res := <-gate.Results():
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for result")
		return Result{}
	}
}

func TestTryLoadDeliversResult(t *testing.T) {
	gate := NewGate(&stubProvider{})
	key := SegmentKey{Entity: "VER", Segment: "race"}

	id, err := gate.TryLoad(context.Background(), key)
	assert.NoError(t, err)

	res := waitResult(t, gate)
	assert.Equal(t, id, res.RequestID)
	assert.Equal(t, key, res.Key)
	assert.NoError(t, res.Err)
	assert.Len(t, res.Segment.Frames, 2)
	assert.False(t, gate.Loading())
}

func TestTryLoadRejectsWhileInFlight(t *testing.T) {
	provider := &stubProvider{block: make(chan struct{})}
	gate := NewGate(provider)

	_, err := gate.TryLoad(context.Background(), SegmentKey{Entity: "VER"})
	assert.NoError(t, err)
	assert.True(t, gate.Loading())

	_, err = gate.TryLoad(context.Background(), SegmentKey{Entity: "HAM"})
	assert.ErrorIs(t, err, ErrLoadInFlight)

	close(provider.block)
	waitResult(t, gate)
	assert.Equal(t, 1, provider.fetchCount())
}

func TestCachedAfterFetch(t *testing.T) {
	gate := NewGate(&stubProvider{})
	key := SegmentKey{Entity: "VER", Segment: "race"}

	_, cached := gate.Cached(key)
	assert.False(t, cached)

	_, err := gate.TryLoad(context.Background(), key)
	assert.NoError(t, err)
	waitResult(t, gate)

	seg, cached := gate.Cached(key)
	assert.True(t, cached)
	assert.True(t, seg.Cached)
	assert.Len(t, seg.Frames, 2)
}

func TestFetchErrorReported(t *testing.T) {
	wantErr := errors.New("backend down")
	gate := NewGate(&stubProvider{err: wantErr})
	key := SegmentKey{Entity: "VER"}

	_, err := gate.TryLoad(context.Background(), key)
	assert.NoError(t, err)

	res := waitResult(t, gate)
	assert.ErrorIs(t, res.Err, wantErr)
	assert.Nil(t, res.Segment)

	_, cached := gate.Cached(key)
	assert.False(t, cached)
}

func TestResultsLatestWins(t *testing.T) {
	gate := NewGate(&stubProvider{})

	_, err := gate.TryLoad(context.Background(), SegmentKey{Entity: "VER"})
	assert.NoError(t, err)
	for gate.Loading() {
		time.Sleep(time.Millisecond)
	}

	id2, err := gate.TryLoad(context.Background(), SegmentKey{Entity: "HAM"})
	assert.NoError(t, err)
	for gate.Loading() {
		time.Sleep(time.Millisecond)
	}

	res := waitResult(t, gate)
	assert.Equal(t, id2, res.RequestID)
	select {
	case <-gate.Results():
		t.Fatal("stale result left in channel")
	default:
	}
}

func TestSegmentTimestamps(t *testing.T) {
	seg := &Segment{Frames: []model.Frame{
		{Timestamp: 1.0},
		{Timestamp: 1.04},
		{Timestamp: 1.08},
	}}
	assert.Equal(t, []float64{1.0, 1.04, 1.08}, seg.Timestamps())
}
