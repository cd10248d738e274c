package httpapi

import (
	"net/http"
	"strings"

	"github.com/ZoneTwelve/voice-chat/internal/chat"
)

type chatRequest struct {
	Text    string         `json:"text"`
	History []chat.Message `json:"conversation_history"`
}

type chatResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
}

// handleChat forwards one conversational turn to the chat backend. History
// travels with the request; the server keeps nothing between turns.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "chat backend not configured")
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "field 'text' is required")
		return
	}

	reply, err := s.chat.Respond(r.Context(), req.Text, req.History)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("chat").Inc()
		}
		respondError(w, http.StatusInternalServerError, "chat_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{Response: reply.Text, Model: reply.Model})
}
