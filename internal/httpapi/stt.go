package httpapi

import (
	"io"
	"net/http"
)

// maxUploadBytes bounds STT uploads; a minute of 44.1 kHz PCM WAV fits well
// under this.
const maxUploadBytes = 25 << 20

type sttResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// handleSTT transcribes an uploaded audio file via the speech recognizer.
func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "speech recognition not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_audio", "multipart field 'audio' is required")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable_audio", err.Error())
		return
	}
	if len(payload) == 0 {
		respondError(w, http.StatusBadRequest, "empty_audio", "uploaded audio is empty")
		return
	}

	result, err := s.recognizer.Transcribe(r.Context(), payload)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("stt").Inc()
		}
		respondError(w, http.StatusInternalServerError, "stt_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sttResponse{Text: result.Text, Language: result.Language})
}
