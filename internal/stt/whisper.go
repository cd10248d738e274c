package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// WhisperConfig configures the whisper.cpp CLI adapter.
type WhisperConfig struct {
	CLI       string
	ModelPath string
	Language  string
	// Threads of 0 means auto (bounded by CPU count).
	Threads int
}

// WhisperCLI shells out to whisper.cpp for each transcription. The CLI is
// stateless, so concurrent calls are safe; each run gets its own temp dir.
type WhisperCLI struct {
	cliPath   string
	modelPath string
	language  string
	threads   int
}

// NewWhisperCLI validates the binary and model up front so misconfiguration
// fails at startup instead of on the first request.
func NewWhisperCLI(cfg WhisperConfig) (*WhisperCLI, error) {
	cli := strings.TrimSpace(cfg.CLI)
	if cli == "" {
		cli = "whisper-cli"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp CLI not found (%s)", cli)
	}

	modelPath := strings.TrimSpace(cfg.ModelPath)
	if modelPath == "" {
		return nil, fmt.Errorf("whisper model path is required")
	}
	if !filepath.IsAbs(modelPath) {
		if wd, err := os.Getwd(); err == nil {
			modelPath = filepath.Join(wd, modelPath)
		}
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper model not found: %s", modelPath)
	}

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}

	threads := cfg.Threads
	if threads < 0 {
		return nil, fmt.Errorf("whisper threads must be >= 0")
	}
	if threads == 0 {
		threads = runtime.NumCPU()
		if threads > 8 {
			threads = 8
		}
		if threads < 2 {
			threads = 2
		}
	}

	return &WhisperCLI{
		cliPath:   cliPath,
		modelPath: modelPath,
		language:  language,
		threads:   threads,
	}, nil
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audio []byte) (Result, error) {
	if len(audio) == 0 {
		return Result{}, fmt.Errorf("empty audio payload")
	}

	tmpDir, err := os.MkdirTemp("", "voicechat-stt-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, "input.wav")
	if err := os.WriteFile(audioPath, audio, 0o600); err != nil {
		return Result{}, err
	}
	outPrefix := filepath.Join(tmpDir, "out")

	// whisper.cpp CLI flag set varies slightly across builds; keep this conservative.
	args := []string{
		"-m", w.modelPath,
		"-f", audioPath,
		"-l", w.language,
		"-otxt",
		"-of", outPrefix,
		"-nt",
		"-t", strconv.Itoa(w.threads),
	}

	cmd := exec.CommandContext(ctx, w.cliPath, args...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Result{}, context.Canceled
		}
		detail := strings.TrimSpace(stderr.String())
		// whisper.cpp can be extremely chatty; keep errors readable.
		if len(detail) > 8<<10 {
			detail = strings.TrimSpace(detail[len(detail)-(8<<10):])
		}
		if detail == "" {
			detail = err.Error()
		}
		return Result{}, fmt.Errorf("whisper.cpp failed: %s", detail)
	}

	b, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:     strings.TrimSpace(string(b)),
		Language: w.language,
	}, nil
}
