package tts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ZoneTwelve/voice-chat/internal/audio"
)

// ServiceConfig carries the synthesis defaults and the voice style table.
type ServiceConfig struct {
	// NewEngine builds the engine on first use. Construction happens at
	// most once per process regardless of how many requests race to it.
	NewEngine func() (Engine, error)

	Styles       map[string]Style
	DefaultVoice string

	Steps       int
	Speed       float64
	StreamSpeed float64

	MinChunkChars int
	MaxChunkChars int
	Silence       time.Duration
}

// Service owns the synthesis engine and the loaded voice styles. It is safe
// for concurrent use; engine calls are serialized by the engine itself.
type Service struct {
	cfg ServiceConfig

	initOnce sync.Once
	engine   Engine
	initErr  error
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = "F1"
	}
	if cfg.Steps <= 0 {
		cfg.Steps = 20
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.15
	}
	if cfg.StreamSpeed <= 0 {
		cfg.StreamSpeed = 1.05
	}
	if cfg.MinChunkChars <= 0 {
		cfg.MinChunkChars = DefaultMinChunkChars
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = DefaultMaxChunkChars
	}
	if cfg.Silence <= 0 {
		cfg.Silence = 300 * time.Millisecond
	}
	return &Service{cfg: cfg}
}

// Engine returns the lazily initialized synthesis engine.
func (s *Service) Engine() (Engine, error) {
	s.initOnce.Do(func() {
		if s.cfg.NewEngine == nil {
			s.initErr = fmt.Errorf("no synthesis engine configured")
			return
		}
		s.engine, s.initErr = s.cfg.NewEngine()
	})
	return s.engine, s.initErr
}

// Close releases the engine if it was ever initialized.
func (s *Service) Close() error {
	var err error
	s.initOnce.Do(func() {
		// Never initialized; leave it that way.
		s.initErr = fmt.Errorf("synthesis service closed")
	})
	if s.engine != nil {
		err = s.engine.Close()
	}
	return err
}

// ResolveStyle maps a client voice id to a loaded style, falling back to the
// default voice when the id is unknown. Unknown ids are not an error.
func (s *Service) ResolveStyle(voiceID string) Style {
	voiceID = strings.TrimSpace(voiceID)
	if st, ok := s.cfg.Styles[voiceID]; ok {
		return st
	}
	if st, ok := s.cfg.Styles[s.cfg.DefaultVoice]; ok {
		return st
	}
	return Style{ID: s.cfg.DefaultVoice}
}

// Voices returns the loaded voice ids in sorted order plus the default id.
func (s *Service) Voices() ([]string, string) {
	ids := make([]string, 0, len(s.cfg.Styles))
	for id := range s.cfg.Styles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, s.cfg.DefaultVoice
}

// SynthOutput is the non-streaming synthesis result: a complete WAV body and
// the timing metadata reported out-of-band by the HTTP layer.
type SynthOutput struct {
	WAV        []byte
	Duration   float64
	SampleRate int
	SynthTime  time.Duration
}

// SynthesizeOnce synthesizes the whole text in a single engine call and
// returns it as a WAV container. Used when low first-audio latency is not
// required.
func (s *Service) SynthesizeOnce(ctx context.Context, text, voiceID string) (SynthOutput, error) {
	engine, err := s.Engine()
	if err != nil {
		return SynthOutput{}, err
	}
	style := s.ResolveStyle(voiceID)

	start := time.Now()
	res, err := engine.Synthesize(ctx, text, style, s.cfg.Steps, s.cfg.Speed)
	if err != nil {
		return SynthOutput{}, err
	}
	synthTime := time.Since(start)

	samples := audio.TrimToDuration(res.Samples, res.SampleRate, res.Duration)
	wav, err := audio.EncodeWAVPCM16LE(audio.PCM16FromFloat32(samples), res.SampleRate)
	if err != nil {
		return SynthOutput{}, err
	}
	return SynthOutput{
		WAV:        wav,
		Duration:   res.Duration,
		SampleRate: res.SampleRate,
		SynthTime:  synthTime,
	}, nil
}
