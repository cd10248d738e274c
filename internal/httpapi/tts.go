package httpapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
)

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// handleTTS synthesizes the whole text in one engine call and returns a WAV
// body. Timing metadata travels in headers so the audio bytes stay playable
// as-is.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	out, err := s.synth.SynthesizeOnce(r.Context(), req.Text, req.VoiceID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("tts_engine").Inc()
		}
		respondError(w, http.StatusInternalServerError, "synthesis_failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveSynthesis(out.SynthTime)
	}

	synthSecs := out.SynthTime.Seconds()
	if out.Duration > 0 {
		log.Printf("tts: %.2fs for %.1fs audio (RTF: %.3f)", synthSecs, out.Duration, synthSecs/out.Duration)
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Synthesis-Time", formatSeconds(synthSecs))
	w.Header().Set("X-Audio-Duration", formatSeconds(out.Duration))
	w.Header().Set("X-Sample-Rate", strconv.Itoa(out.SampleRate))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.WAV)
}

type listVoicesResponse struct {
	Voices  []string `json:"voices"`
	Default string   `json:"default"`
}

func (s *Server) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	ids, def := s.synth.Voices()
	respondJSON(w, http.StatusOK, listVoicesResponse{Voices: ids, Default: def})
}

func formatSeconds(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
