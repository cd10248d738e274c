// Package stt wraps speech recognition behind a small capability interface.
package stt

import "context"

// Result is a completed transcription.
type Result struct {
	Text     string
	Language string
}

// Recognizer transcribes an uploaded audio payload. Implementations accept
// whatever container the client recorded (WAV, webm, ...) and surface decode
// failures as errors.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte) (Result, error)
}
