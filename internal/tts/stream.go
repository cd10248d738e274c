package tts

import (
	"context"
	"time"

	"github.com/ZoneTwelve/voice-chat/internal/audio"
)

// StreamRequest are the client-tunable knobs for one streaming synthesis.
type StreamRequest struct {
	Text    string
	VoiceID string
	// Quality is the denoising step count; 0 means the service default.
	Quality int
	// Speed of speech; 0 means the service streaming default.
	Speed float64
}

// Frame is one self-contained unit of a TTS stream: either a synthesized
// chunk or pure inter-chunk silence. PCM is raw little-endian 16-bit mono;
// the wire writers wrap it per protocol.
type Frame struct {
	Index     int
	Total     int
	Text      string
	Duration  float64
	SynthTime float64
	PCM       []byte
	Silence   bool
}

// ChunkMeta is the metadata object emitted alongside each audio chunk.
// Size reflects the payload as encoded for the wire, so the writer fills it.
type ChunkMeta struct {
	Chunk     int     `json:"chunk"`
	Total     int     `json:"total"`
	Text      string  `json:"text"`
	Duration  float64 `json:"duration"`
	SynthTime float64 `json:"synth_time"`
	Size      int     `json:"size"`
}

// Meta builds the wire metadata for this frame given the encoded payload size.
func (f Frame) Meta(payloadSize int) ChunkMeta {
	return ChunkMeta{
		Chunk:     f.Index,
		Total:     f.Total,
		Text:      f.Text,
		Duration:  f.Duration,
		SynthTime: f.SynthTime,
		Size:      payloadSize,
	}
}

// Stream is one in-flight streaming synthesis. Frames arrive strictly in
// playback order; Errs delivers at most one error, after which no further
// frames are produced. The frame channel closes when the stream ends.
type Stream struct {
	SampleRate int
	Total      int
	Chunks     []string
	Frames     <-chan Frame
	Errs       <-chan error
}

// OpenStream chunks the text and starts a producer that synthesizes chunks
// strictly in order, inserting a fixed silence frame between chunks. The
// producer checks ctx between chunks: a disconnected client stops further
// synthesis, but the in-flight engine call is allowed to finish.
func (s *Service) OpenStream(ctx context.Context, req StreamRequest) (*Stream, error) {
	engine, err := s.Engine()
	if err != nil {
		return nil, err
	}
	style := s.ResolveStyle(req.VoiceID)
	steps := req.Quality
	if steps <= 0 {
		steps = s.cfg.Steps
	}
	speed := req.Speed
	if speed <= 0 {
		speed = s.cfg.StreamSpeed
	}

	chunks := ChunkText(req.Text, s.cfg.MinChunkChars, s.cfg.MaxChunkChars)
	sampleRate := engine.SampleRate()

	frames := make(chan Frame, 2)
	errs := make(chan error, 1)
	st := &Stream{
		SampleRate: sampleRate,
		Total:      len(chunks),
		Chunks:     chunks,
		Frames:     frames,
		Errs:       errs,
	}

	go func() {
		defer close(frames)
		defer close(errs)

		silence := audio.SilencePCM16(sampleRate, s.cfg.Silence)
		for i, text := range chunks {
			if ctx.Err() != nil {
				return
			}

			start := time.Now()
			res, err := engine.Synthesize(ctx, text, style, steps, speed)
			if err != nil {
				errs <- err
				return
			}
			synthTime := time.Since(start).Seconds()

			samples := audio.TrimToDuration(res.Samples, res.SampleRate, res.Duration)
			frame := Frame{
				Index:     i + 1,
				Total:     len(chunks),
				Text:      previewText(text),
				Duration:  res.Duration,
				SynthTime: synthTime,
				PCM:       audio.PCM16FromFloat32(samples),
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}

			if i < len(chunks)-1 {
				select {
				case frames <- Frame{Silence: true, PCM: silence}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return st, nil
}

// previewText truncates chunk text to the first 50 runes for metadata.
func previewText(text string) string {
	const limit = 50
	rs := []rune(text)
	if len(rs) <= limit {
		return text
	}
	return string(rs[:limit]) + "..."
}
