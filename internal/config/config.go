package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice-chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowedOrigins   []string

	// Voice styles.
	VoiceManifestPath string
	VoiceAssetDir     string
	DefaultVoice      string

	// Synthesis engine.
	EngineMode         string // auto | worker | fake
	EnginePython       string
	EngineWorkerScript string
	EngineAssetDir     string

	SynthSteps    int
	SynthSpeed    float64
	StreamSpeed   float64
	ChunkMinChars int
	ChunkMaxChars int
	ChunkSilence  time.Duration

	// Speech recognition.
	STTMode          string // auto | whisper | mock
	WhisperCLI       string
	WhisperModelPath string
	WhisperLanguage  string
	WhisperThreads   int

	// Chat backend.
	ChatProvider  string // auto | openai | echo
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	SystemPrompt  string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "voicechat"),
		AllowedOrigins:   splitList(envOrDefault("APP_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")),

		VoiceManifestPath: stringsTrimSpace("VOICE_MANIFEST"),
		VoiceAssetDir:     envOrDefault("VOICE_ASSET_DIR", "assets/voice_styles"),
		DefaultVoice:      envOrDefault("VOICE_DEFAULT", "F1"),

		EngineMode:         envOrDefault("TTS_ENGINE_MODE", "auto"),
		EnginePython:       stringsTrimSpace("TTS_ENGINE_PYTHON"),
		EngineWorkerScript: envOrDefault("TTS_ENGINE_WORKER_SCRIPT", "scripts/supertonic_worker.py"),
		EngineAssetDir:     envOrDefault("TTS_ENGINE_ASSET_DIR", "assets/onnx"),

		SynthSteps:    20,
		SynthSpeed:    1.15,
		StreamSpeed:   1.05,
		ChunkMinChars: 100,
		ChunkMaxChars: 300,
		ChunkSilence:  300 * time.Millisecond,

		STTMode:          envOrDefault("STT_MODE", "auto"),
		WhisperCLI:       envOrDefault("STT_WHISPER_CLI", "whisper-cli"),
		WhisperModelPath: envOrDefault("STT_WHISPER_MODEL_PATH", ".models/whisper/ggml-base.bin"),
		WhisperLanguage:  envOrDefault("STT_WHISPER_LANGUAGE", "en"),
		WhisperThreads:   0,

		ChatProvider:  envOrDefault("CHAT_PROVIDER", "auto"),
		OpenAIAPIKey:  stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL: stringsTrimSpace("OPENAI_BASE_URL"),
		OpenAIModel:   stringsTrimSpace("OPENAI_MODEL"),
		SystemPrompt:  stringsTrimSpace("CHAT_SYSTEM_PROMPT"),

		ShutdownTimeout: 15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ChunkSilence, err = durationFromEnv("TTS_CHUNK_SILENCE", cfg.ChunkSilence)
	if err != nil {
		return Config{}, err
	}
	cfg.SynthSteps, err = intFromEnv("TTS_STEPS", cfg.SynthSteps)
	if err != nil {
		return Config{}, err
	}
	cfg.SynthSpeed, err = floatFromEnv("TTS_SPEED", cfg.SynthSpeed)
	if err != nil {
		return Config{}, err
	}
	cfg.StreamSpeed, err = floatFromEnv("TTS_STREAM_SPEED", cfg.StreamSpeed)
	if err != nil {
		return Config{}, err
	}
	cfg.ChunkMinChars, err = intFromEnv("TTS_CHUNK_MIN_CHARS", cfg.ChunkMinChars)
	if err != nil {
		return Config{}, err
	}
	cfg.ChunkMaxChars, err = intFromEnv("TTS_CHUNK_MAX_CHARS", cfg.ChunkMaxChars)
	if err != nil {
		return Config{}, err
	}
	cfg.WhisperThreads, err = intFromEnv("STT_WHISPER_THREADS", cfg.WhisperThreads)
	if err != nil {
		return Config{}, err
	}

	if cfg.SynthSteps <= 0 {
		return Config{}, fmt.Errorf("TTS_STEPS must be positive")
	}
	if cfg.SynthSpeed <= 0 {
		return Config{}, fmt.Errorf("TTS_SPEED must be positive")
	}
	if cfg.StreamSpeed <= 0 {
		return Config{}, fmt.Errorf("TTS_STREAM_SPEED must be positive")
	}
	if cfg.ChunkMinChars <= 0 {
		return Config{}, fmt.Errorf("TTS_CHUNK_MIN_CHARS must be positive")
	}
	if cfg.ChunkMaxChars <= cfg.ChunkMinChars {
		return Config{}, fmt.Errorf("TTS_CHUNK_MAX_CHARS must exceed TTS_CHUNK_MIN_CHARS")
	}
	if cfg.ChunkSilence < 0 {
		return Config{}, fmt.Errorf("TTS_CHUNK_SILENCE must not be negative")
	}
	if cfg.WhisperThreads < 0 {
		return Config{}, fmt.Errorf("STT_WHISPER_THREADS must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
