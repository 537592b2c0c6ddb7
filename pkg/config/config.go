package config

// this holds the resolved configuration values from CLI
var (
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules for text logging
	EnableTelemetry   bool    // enable telemetry (metrics on stdout)
	TrackWidth        float64 // assumed track width in world units
	CircuitRotation   float64 // rotation (degrees) applied to the circuit
	LeftUIMargin      int     // viewport pixels reserved for UI on the left
	RightUIMargin     int     // viewport pixels reserved for UI on the right
	PaddingFraction   float64 // fraction of the usable area kept free around the track
	BoundarySamples   int     // resample count for boundary curves
	CenterlineSamples int     // resample count for the reference centerline
	FPS               float64 // assumed sample rate when timestamps are missing
	PlaybackSpeed     float64 // initial playback speed multiplier
)
