package tts

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/ZoneTwelve/voice-chat/internal/audio"
)

// FakeEngine synthesizes a deterministic sine tone whose pitch depends on the
// voice style and whose length depends on the text. It exists so chunking,
// framing, and handler logic can be exercised without a real model.
type FakeEngine struct {
	// Rate defaults to audio.DefaultSampleRate when zero.
	Rate int
	// PadSeconds of trailing zero samples are appended past the audible
	// region to mimic engine padding that callers must trim.
	PadSeconds float64
	// Err, when set, is returned by every Synthesize call.
	Err error

	mu    sync.Mutex
	calls []FakeCall
}

// FakeCall records one Synthesize invocation for assertions.
type FakeCall struct {
	Text  string
	Style Style
	Steps int
	Speed float64
}

func (e *FakeEngine) SampleRate() int {
	if e.Rate > 0 {
		return e.Rate
	}
	return audio.DefaultSampleRate
}

func (e *FakeEngine) Synthesize(_ context.Context, text string, style Style, steps int, speed float64) (Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, FakeCall{Text: text, Style: style, Steps: steps, Speed: speed})
	e.mu.Unlock()

	if e.Err != nil {
		return Result{}, e.Err
	}

	rate := e.SampleRate()
	if speed <= 0 {
		speed = 1.0
	}
	// Roughly 20 ms of audio per rune, scaled by speed.
	duration := float64(utf8.RuneCountInString(text)) * 0.02 / speed
	if duration < 0.05 {
		duration = 0.05
	}

	audible := int(math.Round(float64(rate) * duration))
	pad := int(float64(rate) * e.PadSeconds)
	samples := make([]float32, audible+pad)
	freq := 180.0 + float64(styleSeed(style.ID)%220)
	for i := 0; i < audible; i++ {
		samples[i] = float32(0.25 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return Result{Samples: samples, SampleRate: rate, Duration: duration}, nil
}

func (e *FakeEngine) Close() error { return nil }

// Calls returns a copy of the recorded synthesize invocations.
func (e *FakeEngine) Calls() []FakeCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]FakeCall, len(e.calls))
	copy(out, e.calls)
	return out
}

func styleSeed(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}
