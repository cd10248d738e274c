package tts

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSynthesizeOnceProducesWAV(t *testing.T) {
	svc := testService(&FakeEngine{PadSeconds: 0.5})
	out, err := svc.SynthesizeOnce(context.Background(), "Hello from the synthesizer.", "F1")
	if err != nil {
		t.Fatalf("SynthesizeOnce() error = %v", err)
	}
	if len(out.WAV) <= 44 {
		t.Fatalf("WAV body = %d bytes, want audio past the header", len(out.WAV))
	}
	if !bytes.HasPrefix(out.WAV, []byte("RIFF")) {
		t.Fatalf("WAV body missing RIFF magic")
	}
	if out.SampleRate != 44100 {
		t.Fatalf("sample rate = %d, want 44100", out.SampleRate)
	}
	if out.Duration <= 0 {
		t.Fatalf("duration = %v, want > 0", out.Duration)
	}
	if out.SynthTime < 0 {
		t.Fatalf("synth time = %v, want >= 0", out.SynthTime)
	}
}

func TestUnknownVoiceFallsBackToDefault(t *testing.T) {
	svc := testService(&FakeEngine{})
	ctx := context.Background()

	unknown, err := svc.SynthesizeOnce(ctx, "Same text either way.", "definitely-not-a-voice")
	if err != nil {
		t.Fatalf("SynthesizeOnce(unknown) error = %v", err)
	}
	dflt, err := svc.SynthesizeOnce(ctx, "Same text either way.", "F1")
	if err != nil {
		t.Fatalf("SynthesizeOnce(default) error = %v", err)
	}
	if !bytes.Equal(unknown.WAV, dflt.WAV) {
		t.Fatalf("unknown voice id did not produce the default voice's audio")
	}

	other, err := svc.SynthesizeOnce(ctx, "Same text either way.", "M1")
	if err != nil {
		t.Fatalf("SynthesizeOnce(M1) error = %v", err)
	}
	if bytes.Equal(other.WAV, dflt.WAV) {
		t.Fatalf("distinct voices unexpectedly produced identical audio")
	}
}

func TestSynthesizeOncePropagatesEngineError(t *testing.T) {
	wantErr := errors.New("model blew up")
	svc := testService(&FakeEngine{Err: wantErr})
	if _, err := svc.SynthesizeOnce(context.Background(), "boom", "F1"); !errors.Is(err, wantErr) {
		t.Fatalf("SynthesizeOnce() error = %v, want %v", err, wantErr)
	}
}

func TestEngineInitializesExactlyOnce(t *testing.T) {
	var inits atomic.Int32
	svc := NewService(ServiceConfig{
		NewEngine: func() (Engine, error) {
			inits.Add(1)
			return &FakeEngine{}, nil
		},
		Styles: testStyles(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Engine(); err != nil {
				t.Errorf("Engine() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n := inits.Load(); n != 1 {
		t.Fatalf("engine factory ran %d times, want 1", n)
	}
}

func TestVoicesListsLoadedStyles(t *testing.T) {
	svc := testService(&FakeEngine{})
	ids, def := svc.Voices()
	if def != "F1" {
		t.Fatalf("default voice = %q, want %q", def, "F1")
	}
	want := []string{"F1", "F2", "M1", "M2"}
	if len(ids) != len(want) {
		t.Fatalf("voices = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("voices[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
