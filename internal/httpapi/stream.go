package httpapi

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ZoneTwelve/voice-chat/internal/audio"
	"github.com/ZoneTwelve/voice-chat/internal/tts"
)

// streamBoundary is the multipart boundary token both ends agree on.
const streamBoundary = "chunk"

type ttsStreamRequest struct {
	Text    string  `json:"text"`
	VoiceID string  `json:"voice_id"`
	Quality int     `json:"quality"`
	Speed   float64 `json:"speed"`
}

func (req ttsStreamRequest) toStream() tts.StreamRequest {
	return tts.StreamRequest{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Quality: req.Quality,
		Speed:   req.Speed,
	}
}

// handleTTSStream speaks the multipart protocol: per chunk a JSON metadata
// part and an audio/wav part, inline WAV silence between chunks, and a
// closing boundary. Playback can start as soon as the first part lands.
func (s *Server) handleTTSStream(w http.ResponseWriter, r *http.Request) {
	var req ttsStreamRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	st, err := s.synth.OpenStream(r.Context(), req.toStream())
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("tts_engine").Inc()
		}
		respondError(w, http.StatusInternalServerError, "synthesis_failed", err.Error())
		return
	}

	streamID := uuid.NewString()
	log.Printf("tts stream %s: %d chunks from %d chars", streamID, st.Total, len(req.Text))

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("X-Chunks", strconv.Itoa(st.Total))
	w.Header().Set("X-Sample-Rate", strconv.Itoa(st.SampleRate))
	w.WriteHeader(http.StatusOK)

	start := time.Now()
	err = s.consumeStream(st, streamID, start, func(frame tts.Frame) error {
		wav, err := audio.EncodeWAVPCM16LE(frame.PCM, st.SampleRate)
		if err != nil {
			return err
		}
		if frame.Silence {
			// Silence is emitted inline, without part headers.
			if _, err := w.Write(wav); err != nil {
				return err
			}
			flush(w)
			return nil
		}

		meta, err := json.Marshal(frame.Meta(len(wav)))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: application/json\r\n\r\n%s\r\n", streamBoundary, meta); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: audio/wav\r\nContent-Length: %d\r\n\r\n", streamBoundary, len(wav)); err != nil {
			return err
		}
		if _, err := w.Write(wav); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
		flush(w)
		return nil
	})
	if err != nil {
		// Bytes are already on the wire; the abrupt close is the error signal.
		log.Printf("tts stream %s aborted: %v", streamID, err)
		return
	}

	_, _ = fmt.Fprintf(w, "--%s--\r\n", streamBoundary)
	flush(w)
}

// handleTTSStreamSimple speaks the raw framed protocol: an 8-byte header of
// (uint32 sampleRate, uint32 chunkCount) then length-prefixed PCM16LE frames.
// End of stream is signaled by connection close.
func (s *Server) handleTTSStreamSimple(w http.ResponseWriter, r *http.Request) {
	var req ttsStreamRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	st, err := s.synth.OpenStream(r.Context(), req.toStream())
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("tts_engine").Inc()
		}
		respondError(w, http.StatusInternalServerError, "synthesis_failed", err.Error())
		return
	}

	streamID := uuid.NewString()
	log.Printf("tts stream-simple %s: %d chunks", streamID, st.Total)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Chunks", strconv.Itoa(st.Total))
	w.Header().Set("X-Sample-Rate", strconv.Itoa(st.SampleRate))
	w.WriteHeader(http.StatusOK)

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(st.SampleRate))
	binary.LittleEndian.PutUint32(header[4:], uint32(st.Total))
	if _, err := w.Write(header[:]); err != nil {
		return
	}
	flush(w)

	start := time.Now()
	err = s.consumeStream(st, streamID, start, func(frame tts.Frame) error {
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(frame.PCM)))
		if _, err := w.Write(size[:]); err != nil {
			return err
		}
		if _, err := w.Write(frame.PCM); err != nil {
			return err
		}
		flush(w)
		return nil
	})
	if err != nil {
		log.Printf("tts stream-simple %s aborted: %v", streamID, err)
	}
}

type wsStreamMeta struct {
	tts.ChunkMeta
	Silence bool `json:"silence,omitempty"`
}

type wsStreamDone struct {
	Done   bool `json:"done"`
	Chunks int  `json:"chunks"`
}

// handleTTSStreamWS mirrors the multipart frame sequence over a websocket:
// a JSON text message then a binary WAV message per frame, and a final done
// message before the close handshake.
func (s *Server) handleTTSStreamWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	var req ttsStreamRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInvalidFramePayloadData, "invalid request"),
			time.Now().Add(5*time.Second))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	st, err := s.synth.OpenStream(ctx, req.toStream())
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("tts_engine").Inc()
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "synthesis failed"),
			time.Now().Add(5*time.Second))
		return
	}

	streamID := uuid.NewString()
	log.Printf("tts stream-ws %s: %d chunks", streamID, st.Total)

	start := time.Now()
	err = s.consumeStream(st, streamID, start, func(frame tts.Frame) error {
		wav, err := audio.EncodeWAVPCM16LE(frame.PCM, st.SampleRate)
		if err != nil {
			return err
		}
		meta := wsStreamMeta{ChunkMeta: frame.Meta(len(wav)), Silence: frame.Silence}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(meta); err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteMessage(websocket.BinaryMessage, wav)
	})
	if err != nil {
		log.Printf("tts stream-ws %s aborted: %v", streamID, err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "synthesis failed"),
			time.Now().Add(5*time.Second))
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = conn.WriteJSON(wsStreamDone{Done: true, Chunks: st.Total})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(5*time.Second))
}

// consumeStream drains a synthesis stream through emit, keeping the stream
// metrics and per-chunk logging in one place. It returns the stream's error,
// if any.
func (s *Server) consumeStream(st *tts.Stream, streamID string, start time.Time, emit func(tts.Frame) error) error {
	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
		defer s.metrics.ActiveStreams.Dec()
	}

	first := true
	for frame := range st.Frames {
		if !frame.Silence {
			if s.metrics != nil {
				s.metrics.ObserveSynthesis(time.Duration(frame.SynthTime * float64(time.Second)))
				if first {
					s.metrics.ObserveFirstChunk(time.Since(start))
				}
			}
			first = false
			log.Printf("tts stream %s: chunk %d/%d: %.2fs for %.1fs audio", streamID, frame.Index, frame.Total, frame.SynthTime, frame.Duration)
		}
		if err := emit(frame); err != nil {
			return err
		}
	}
	if err := <-st.Errs; err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("tts_engine").Inc()
		}
		return err
	}
	return nil
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
