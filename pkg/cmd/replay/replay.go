package replay

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/pkg/config"
	"github.com/racelogix/f1replay-engine-go/pkg/loader"
	"github.com/racelogix/f1replay-engine-go/pkg/model"
	"github.com/racelogix/f1replay-engine-go/pkg/playback"
	"github.com/racelogix/f1replay-engine-go/pkg/processing/events"
	session "github.com/racelogix/f1replay-engine-go/pkg/replay"
	"github.com/racelogix/f1replay-engine-go/pkg/telemetry"
	"github.com/racelogix/f1replay-engine-go/pkg/track"
	"github.com/racelogix/f1replay-engine-go/pkg/view"
)

var (
	entity      string
	segment     string
	width       float64
	height      float64
	maxSeconds  float64
	speedPreset int
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay sessionFile",
		Short: "replays a recorded session headless and prints the timeline",
		Long: `replays a recorded session file
The session file holds the reference lap, status intervals and telemetry
segments as JSON. The replay runs without rendering and reports progress
and extracted timeline events.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return startReplay(args[0])
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "entity to replay")
	cmd.Flags().StringVar(&segment, "segment", "race", "segment to replay")
	cmd.Flags().Float64Var(&width, "width", 1920, "virtual viewport width")
	cmd.Flags().Float64Var(&height, "height", 1080, "virtual viewport height")
	cmd.Flags().Float64Var(&maxSeconds, "max-seconds", 0,
		"stop after this many simulated seconds (0: run until completed)")
	cmd.Flags().IntVar(&speedPreset, "speed-preset", -1,
		"playback speed preset index (0.5x/1x/2x/4x), overrides --speed")
	return cmd
}

type sessionFile struct {
	ReferenceLap struct {
		ID  string    `json:"id"`
		X   []float64 `json:"x"`
		Y   []float64 `json:"y"`
		DRS []int     `json:"drs"`
	} `json:"referenceLap"`
	Intervals []model.StatusInterval `json:"intervals"`
	TotalLaps int                    `json:"totalLaps"`
	Segments  []struct {
		Entity  string      `json:"entity"`
		Segment string      `json:"segment"`
		Frames  []frameData `json:"frames"`
	} `json:"segments"`
}

type frameData struct {
	Timestamp float64 `json:"timestamp"`
	Entities  map[string]struct {
		X      float64        `json:"x"`
		Y      float64        `json:"y"`
		Fields map[string]any `json:"fields"`
	} `json:"entities"`
}

// fileProvider serves segments parsed from the session file.
type fileProvider struct {
	segments map[loader.SegmentKey][]model.Frame
}

func (p *fileProvider) FetchSegment(
	_ context.Context,
	key loader.SegmentKey,
) (*loader.Segment, error) {
	frames, ok := p.segments[key]
	if !ok {
		return nil, fmt.Errorf("no segment %s for entity %s", key.Segment, key.Entity)
	}
	return &loader.Segment{Frames: frames}, nil
}

//nolint:funlen // by design
func startReplay(file string) error {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		if config.LogFilter != "" {
			logger = log.FilteredDevLogger(
				os.Stderr,
				parseLogLevel(config.LogLevel, log.DebugLevel),
				config.LogFilter,
				log.WithCaller(true),
				log.AddCallerSkip(1))
		} else {
			logger = log.DevLogger(
				os.Stderr,
				parseLogLevel(config.LogLevel, log.DebugLevel),
				log.WithCaller(true),
				log.AddCallerSkip(1))
		}
	}
	log.ResetDefault(logger)

	var tel *config.Telemetry
	if config.EnableTelemetry {
		var err error
		if tel, err = config.SetupTelemetry(context.Background()); err != nil {
			log.Warn("could not setup telemetry", log.ErrorField(err))
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var parsed sessionFile
	if err = oj.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("could not parse session file: %w", err)
	}

	provider := &fileProvider{segments: map[loader.SegmentKey][]model.Frame{}}
	for _, seg := range parsed.Segments {
		key := loader.SegmentKey{
			Entity:  model.EntityID(seg.Entity),
			Segment: seg.Segment,
		}
		provider.segments[key] = convertFrames(seg.Frames)
	}

	s := session.NewSession(provider,
		session.WithTrackBuilder(track.NewBuilder(
			track.WithTrackWidth(config.TrackWidth),
			track.WithBoundarySamples(config.BoundarySamples),
			track.WithCenterlineSamples(config.CenterlineSamples))),
		session.WithProjectorOptions(
			view.WithMargins(float64(config.LeftUIMargin), float64(config.RightUIMargin)),
			view.WithPadding(config.PaddingFraction),
			view.WithRotationDegrees(config.CircuitRotation)),
		session.WithClock(playback.NewClock(playback.WithFPS(config.FPS))),
		session.WithExtractor(events.NewExtractor(
			events.WithSampleRate(config.FPS))))

	lap := track.LapSample{
		X:   parsed.ReferenceLap.X,
		Y:   parsed.ReferenceLap.Y,
		DRS: parsed.ReferenceLap.DRS,
	}
	if err = s.SetReferenceLap(parsed.ReferenceLap.ID, lap); err != nil {
		return err
	}
	s.SetStatusIntervals(parsed.Intervals, parsed.TotalLaps)
	s.Resize(width, height)

	key := loader.SegmentKey{Entity: model.EntityID(entity), Segment: segment}
	if err = s.Select(context.Background(), key); err != nil {
		return fmt.Errorf("could not start fetch for %s/%s: %w", entity, segment, err)
	}

	runLoop(s)

	if tel != nil {
		tel.Shutdown()
	}
	fmt.Println(oj.JSON(s.Events(), 2))
	return nil
}

// runLoop advances the session in fixed steps until playback completes.
func runLoop(s *session.Session) {
	dt := 1.0 / config.FPS
	tick := time.Duration(dt * float64(time.Second))
	clock := s.Clock()

	started := false
	elapsed := 0.0
	nextReport := 0.0
	for {
		snap := s.Tick(dt)
		elapsed += dt
		if maxSeconds > 0 && elapsed >= maxSeconds {
			return
		}
		if snap.Loading {
			time.Sleep(tick)
			continue
		}
		if clock.FrameCount() == 0 {
			log.Error("no frames available, stopping replay")
			return
		}
		if !started {
			if speedPreset >= 0 {
				clock.SelectPreset(speedPreset)
			} else {
				clock.SetSpeed(config.PlaybackSpeed)
			}
			started = true
		}
		if snap.Paused && !clock.Completed() {
			clock.Resume()
		}
		if snap.PlayTime >= nextReport {
			log.Info("replay progress",
				log.Int("frame", snap.FrameIndex),
				log.Float("playTime", snap.PlayTime),
				log.Int("entities", len(snap.Entities)))
			nextReport = snap.PlayTime + 10
		}
		if clock.Completed() {
			return
		}
	}
}

func convertFrames(in []frameData) []model.Frame {
	ret := make([]model.Frame, len(in))
	for i, f := range in {
		entities := make(map[model.EntityID]model.EntityState, len(f.Entities))
		for id, e := range f.Entities {
			fields := make(telemetry.Record, len(e.Fields))
			for name, raw := range e.Fields {
				fields[name] = toValue(raw)
			}
			entities[model.EntityID(id)] = model.EntityState{
				Pos:    model.Point{X: e.X, Y: e.Y},
				Fields: fields,
			}
		}
		ret[i] = model.Frame{Timestamp: f.Timestamp, Entities: entities}
	}
	return ret
}

func toValue(raw any) telemetry.Value {
	switch v := raw.(type) {
	case float64:
		return telemetry.Number(v)
	case int64:
		return telemetry.Number(float64(v))
	case bool:
		return telemetry.Bool(v)
	case string:
		return telemetry.Text(v)
	default:
		return telemetry.Absent
	}
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}
