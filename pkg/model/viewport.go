package model

// ViewportTransform maps world coordinates to screen coordinates.
// Recomputed whenever the viewport size or rotation setting changes.
type ViewportTransform struct {
	Scale       float64 `json:"scale"`
	TranslateX  float64 `json:"translateX"`
	TranslateY  float64 `json:"translateY"`
	RotationRad float64 `json:"rotationRad"`
}

// PlaybackState is the externally visible state of the playback engine,
// published each tick for HUD display.
type PlaybackState struct {
	FrameIndex    int     `json:"frameIndex"`
	PlayTime      float64 `json:"playTime"`
	PlaybackSpeed float64 `json:"playbackSpeed"`
	Paused        bool    `json:"paused"`
}
