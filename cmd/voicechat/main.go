package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZoneTwelve/voice-chat/internal/chat"
	"github.com/ZoneTwelve/voice-chat/internal/config"
	"github.com/ZoneTwelve/voice-chat/internal/httpapi"
	"github.com/ZoneTwelve/voice-chat/internal/observability"
	"github.com/ZoneTwelve/voice-chat/internal/stt"
	"github.com/ZoneTwelve/voice-chat/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	manifest, err := config.LoadVoiceManifest(cfg.VoiceManifestPath, cfg.VoiceAssetDir, cfg.DefaultVoice)
	if err != nil {
		log.Fatalf("voice manifest error: %v", err)
	}
	styles := make(map[string]tts.Style, len(manifest.Voices))
	for id, path := range manifest.Voices {
		styles[id] = tts.Style{ID: id, AssetPath: path}
	}
	log.Printf("voices: %v (default %s)", manifest.IDs(), manifest.Default)

	synth := tts.NewService(tts.ServiceConfig{
		NewEngine:     resolveEngineFactory(cfg, styles[manifest.Default]),
		Styles:        styles,
		DefaultVoice:  manifest.Default,
		Steps:         cfg.SynthSteps,
		Speed:         cfg.SynthSpeed,
		StreamSpeed:   cfg.StreamSpeed,
		MinChunkChars: cfg.ChunkMinChars,
		MaxChunkChars: cfg.ChunkMaxChars,
		Silence:       cfg.ChunkSilence,
	})
	defer synth.Close()

	recognizer := resolveRecognizer(cfg)
	chatClient := resolveChatClient(cfg)

	api := httpapi.New(cfg, synth, recognizer, chatClient, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// resolveEngineFactory picks the synthesis backend. The factory runs lazily
// on first synthesis, so a heavyweight model load never delays startup.
func resolveEngineFactory(cfg config.Config, warmupStyle tts.Style) func() (tts.Engine, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.EngineMode))
	if mode == "" {
		mode = "auto"
	}

	worker := func() (tts.Engine, error) {
		return tts.StartWorker(tts.WorkerConfig{
			Python:      cfg.EnginePython,
			Script:      cfg.EngineWorkerScript,
			AssetDir:    cfg.EngineAssetDir,
			WarmupStyle: warmupStyle,
		})
	}

	switch mode {
	case "worker":
		return worker
	case "fake":
		log.Printf("tts engine: fake (deterministic tone)")
		return func() (tts.Engine, error) { return &tts.FakeEngine{}, nil }
	case "auto":
		if _, err := os.Stat(cfg.EngineWorkerScript); err == nil {
			return worker
		}
		log.Printf("tts engine: worker script not found at %s, using fake engine", cfg.EngineWorkerScript)
		return func() (tts.Engine, error) { return &tts.FakeEngine{}, nil }
	default:
		log.Fatalf("invalid TTS_ENGINE_MODE: %q (expected auto|worker|fake)", cfg.EngineMode)
		return nil
	}
}

func resolveRecognizer(cfg config.Config) stt.Recognizer {
	mode := strings.ToLower(strings.TrimSpace(cfg.STTMode))
	if mode == "" {
		mode = "auto"
	}

	newWhisper := func() (stt.Recognizer, error) {
		return stt.NewWhisperCLI(stt.WhisperConfig{
			CLI:       cfg.WhisperCLI,
			ModelPath: cfg.WhisperModelPath,
			Language:  cfg.WhisperLanguage,
			Threads:   cfg.WhisperThreads,
		})
	}

	switch mode {
	case "whisper":
		r, err := newWhisper()
		if err != nil {
			log.Fatalf("whisper init failed: %v", err)
		}
		log.Printf("stt: whisper.cpp")
		return r
	case "mock":
		log.Printf("stt: mock")
		return &stt.MockRecognizer{}
	case "auto":
		if r, err := newWhisper(); err == nil {
			log.Printf("stt: whisper.cpp")
			return r
		} else {
			log.Printf("stt: whisper unavailable (%v), using mock", err)
		}
		return &stt.MockRecognizer{}
	default:
		log.Fatalf("invalid STT_MODE: %q (expected auto|whisper|mock)", cfg.STTMode)
		return nil
	}
}

func resolveChatClient(cfg config.Config) chat.Client {
	mode := strings.ToLower(strings.TrimSpace(cfg.ChatProvider))
	if mode == "" {
		mode = "auto"
	}

	newOpenAI := func() (chat.Client, error) {
		return chat.NewOpenAICompatible(chat.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			SystemPrompt: cfg.SystemPrompt,
		})
	}

	switch mode {
	case "openai":
		c, err := newOpenAI()
		if err != nil {
			log.Fatalf("chat backend init failed: %v", err)
		}
		log.Printf("chat: openai-compatible")
		return c
	case "echo":
		log.Printf("chat: echo")
		return chat.Echo{}
	case "auto":
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			if c, err := newOpenAI(); err == nil {
				log.Printf("chat: openai-compatible")
				return c
			}
		}
		log.Printf("chat: echo (no API key configured)")
		return chat.Echo{}
	default:
		log.Fatalf("invalid CHAT_PROVIDER: %q (expected auto|openai|echo)", cfg.ChatProvider)
		return nil
	}
}
