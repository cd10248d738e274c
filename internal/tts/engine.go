package tts

import "context"

// Style identifies a pre-loaded voice profile. Styles are resolved once at
// engine initialization and shared read-only across requests.
type Style struct {
	// ID is the short identifier clients use, e.g. "F1" or "M2".
	ID string
	// AssetPath points at the on-disk style definition the engine loads.
	AssetPath string
}

// Result is the output of a single synthesis call. Samples are normalized
// floats in [-1, 1]. The engine may return trailing padding past the audible
// region; Duration*SampleRate never exceeds len(Samples).
type Result struct {
	Samples    []float32
	SampleRate int
	Duration   float64
}

// Engine is the synthesis capability. Implementations are not assumed
// reentrant; callers go through the Service, which serializes access.
type Engine interface {
	Synthesize(ctx context.Context, text string, style Style, steps int, speed float64) (Result, error)
	SampleRate() int
	Close() error
}
