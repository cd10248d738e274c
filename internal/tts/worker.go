package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// WorkerConfig describes how to launch the synthesis worker process. The
// worker wraps the neural model and speaks one JSON object per line over
// stdin/stdout.
type WorkerConfig struct {
	Python   string
	Script   string
	AssetDir string
	// WarmupStyle is synthesized once at startup so model/dependency
	// failures surface before the first request.
	WarmupStyle Style
}

type workerEngine struct {
	mu         sync.Mutex
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	dec        *json.Decoder
	sampleRate int
	closed     bool
}

type workerRequest struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Style string  `json:"style"`
	Steps int     `json:"steps"`
	Speed float64 `json:"speed"`
}

type workerResponse struct {
	ID            string  `json:"id"`
	OK            bool    `json:"ok"`
	SampleRate    int     `json:"sample_rate"`
	Duration      float64 `json:"duration"`
	SamplesBase64 string  `json:"samples_base64"`
	Error         string  `json:"error"`
}

// StartWorker launches the synthesis worker and verifies it with a warmup
// request. The returned engine serializes all synthesis calls; the worker
// protocol cannot interleave requests.
func StartWorker(cfg WorkerConfig) (Engine, error) {
	python := strings.TrimSpace(cfg.Python)
	if python == "" {
		python = "python3"
	}
	script := strings.TrimSpace(cfg.Script)
	if script == "" {
		return nil, fmt.Errorf("synthesis worker script not configured")
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("synthesis worker script not found: %s", script)
	}

	args := []string{"-u", script}
	if strings.TrimSpace(cfg.AssetDir) != "" {
		args = append(args, "--assets", cfg.AssetDir)
	}
	cmd := exec.Command(python, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	w := &workerEngine{cmd: cmd, stdin: stdin, dec: json.NewDecoder(stdout)}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	res, err := w.Synthesize(ctx, "warmup", cfg.WarmupStyle, 4, 1.0)
	if err != nil {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("synthesis worker failed to start: %s", msg)
	}
	if res.SampleRate <= 0 {
		_ = w.Close()
		return nil, fmt.Errorf("synthesis worker reported invalid sample rate %d", res.SampleRate)
	}
	w.sampleRate = res.SampleRate
	return w, nil
}

func (w *workerEngine) SampleRate() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sampleRate
}

func (w *workerEngine) Synthesize(ctx context.Context, text string, style Style, steps int, speed float64) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Result{}, fmt.Errorf("synthesis worker closed")
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if steps <= 0 {
		steps = 20
	}
	if speed <= 0 {
		speed = 1.0
	}

	id := fmt.Sprintf("req-%d", time.Now().UnixNano())
	line, _ := json.Marshal(workerRequest{
		ID:    id,
		Text:  text,
		Style: style.AssetPath,
		Steps: steps,
		Speed: speed,
	})
	line = append(line, '\n')
	if _, err := w.stdin.Write(line); err != nil {
		return Result{}, err
	}

	// Decode exactly one response; the mutex keeps the worker single-flight.
	var resp workerResponse
	if err := w.dec.Decode(&resp); err != nil {
		return Result{}, err
	}
	if resp.ID != id {
		return Result{}, fmt.Errorf("synthesis worker out-of-sync (got %q, expected %q)", resp.ID, id)
	}
	if !resp.OK {
		msg := strings.TrimSpace(resp.Error)
		if msg == "" {
			msg = "unknown synthesis error"
		}
		return Result{}, fmt.Errorf("%s", msg)
	}

	samples, err := decodeFloat32LE(resp.SamplesBase64)
	if err != nil {
		return Result{}, fmt.Errorf("decode samples_base64: %w", err)
	}
	return Result{Samples: samples, SampleRate: resp.SampleRate, Duration: resp.Duration}, nil
}

func (w *workerEngine) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	stdin := w.stdin
	cmd := w.cmd
	w.stdin = nil
	w.cmd = nil
	w.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(1200 * time.Millisecond):
		_ = cmd.Process.Kill()
		<-done
	case <-done:
	}
	return nil
}

func decodeFloat32LE(encoded string) ([]float32, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("sample payload not float32-aligned (%d bytes)", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}
