package playback

import (
	"errors"
	"math"
	"sort"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
)

var ErrNoFrames = errors.New("no frames loaded")

const (
	MinSpeed = 0.1
	MaxSpeed = 1024.0
)

// SpeedPresets are the multipliers offered for direct selection.
var SpeedPresets = []float64{0.5, 1, 2, 4}

// Clock advances a frame cursor through a loaded segment in wall time. When
// frame timestamps are available the cursor follows the accumulated play
// time; without them it steps at a fixed frame rate. Not safe for
// concurrent use.
type Clock struct {
	timestamps []float64
	frameCount int
	frameIndex int
	playTime   float64
	speed      float64
	paused     bool
	fps        float64
}

type Option func(*Clock)

// WithFPS sets the frame rate used when no timestamps are available.
func WithFPS(fps float64) Option {
	return func(c *Clock) {
		if fps > 0 {
			c.fps = fps
		}
	}
}

func NewClock(opts ...Option) *Clock {
	ret := &Clock{
		speed:  1,
		paused: true,
		fps:    25,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Load installs a new segment and resets the speed multiplier. timestamps
// may be nil or shorter than the frame count; the clock then falls back to
// fixed-rate stepping. autoStart begins playback immediately.
func (c *Clock) Load(timestamps []float64, frameCount int, autoStart bool) error {
	if frameCount <= 0 {
		return ErrNoFrames
	}
	if len(timestamps) >= frameCount {
		c.timestamps = timestamps[:frameCount]
	} else {
		c.timestamps = nil
	}
	c.frameCount = frameCount
	c.frameIndex = 0
	c.playTime = c.startTime()
	c.speed = 1
	c.paused = !autoStart
	log.Debug("segment loaded",
		log.Int("frames", frameCount),
		log.Bool("timestamped", c.timestamps != nil),
		log.Bool("autoStart", autoStart))
	return nil
}

// Advance moves the cursor by dt seconds of wall time. Paused or empty
// clocks are unaffected. Reaching the last frame pauses playback.
func (c *Clock) Advance(dt float64) {
	if c.paused || c.frameCount == 0 {
		return
	}
	if c.timestamps == nil {
		step := int(math.Round(dt * c.fps * c.speed))
		c.frameIndex = clampIndex(c.frameIndex+step, c.frameCount)
		c.playTime = float64(c.frameIndex) / c.fps
	} else {
		c.playTime += dt * c.speed
		c.playTime = min(max(c.playTime, c.startTime()), c.endTime())
		c.frameIndex = c.indexForTime(c.playTime)
	}
	if c.frameIndex >= c.frameCount-1 {
		c.paused = true
	}
}

// indexForTime returns the index of the last frame whose timestamp does not
// exceed t.
func (c *Clock) indexForTime(t float64) int {
	idx := sort.Search(len(c.timestamps), func(i int) bool {
		return c.timestamps[i] > t
	}) - 1
	return clampIndex(idx, c.frameCount)
}

// Seek jumps to the given frame and re-bases the play time on its
// timestamp. The pause state is kept.
func (c *Clock) Seek(frame int) {
	if c.frameCount == 0 {
		return
	}
	c.frameIndex = clampIndex(frame, c.frameCount)
	if c.timestamps != nil {
		c.playTime = c.timestamps[c.frameIndex]
	} else {
		c.playTime = float64(c.frameIndex) / c.fps
	}
}

// Step moves the frame cursor without touching the play time. Meant for
// frame-by-frame inspection while paused.
func (c *Clock) Step(frames int) {
	if c.frameCount == 0 {
		return
	}
	c.frameIndex = clampIndex(c.frameIndex+frames, c.frameCount)
}

// SetSpeed sets the playback multiplier, clamped to the supported range.
func (c *Clock) SetSpeed(speed float64) {
	c.speed = min(max(speed, MinSpeed), MaxSpeed)
}

// ScaleSpeed multiplies the current speed, clamped to the supported range.
func (c *Clock) ScaleSpeed(factor float64) {
	c.SetSpeed(c.speed * factor)
}

// SelectPreset sets the speed to the given SpeedPresets entry. Out-of-range
// indices are ignored.
func (c *Clock) SelectPreset(idx int) {
	if idx < 0 || idx >= len(SpeedPresets) {
		return
	}
	c.SetSpeed(SpeedPresets[idx])
}

func (c *Clock) TogglePause() {
	c.paused = !c.paused
}

func (c *Clock) Pause()  { c.paused = true }
func (c *Clock) Resume() { c.paused = false }

// Restart rewinds to the first frame, resets the speed and pauses.
func (c *Clock) Restart() {
	c.frameIndex = 0
	c.playTime = c.startTime()
	c.speed = 1
	c.paused = true
}

// Completed reports whether the cursor sits on the last frame.
func (c *Clock) Completed() bool {
	return c.frameCount > 0 && c.frameIndex >= c.frameCount-1
}

func (c *Clock) FrameIndex() int   { return c.frameIndex }
func (c *Clock) FrameCount() int   { return c.frameCount }
func (c *Clock) PlayTime() float64 { return c.playTime }
func (c *Clock) Speed() float64    { return c.speed }
func (c *Clock) Paused() bool      { return c.paused }

func (c *Clock) State() model.PlaybackState {
	return model.PlaybackState{
		FrameIndex:    c.frameIndex,
		PlayTime:      c.playTime,
		PlaybackSpeed: c.speed,
		Paused:        c.paused,
	}
}

func (c *Clock) startTime() float64 {
	if c.timestamps != nil {
		return c.timestamps[0]
	}
	return 0
}

func (c *Clock) endTime() float64 {
	if c.timestamps != nil {
		return c.timestamps[len(c.timestamps)-1]
	}
	return 0
}

func clampIndex(idx, count int) int {
	if idx < 0 {
		return 0
	}
	if idx > count-1 {
		return count - 1
	}
	return idx
}
