package httpapi

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ZoneTwelve/voice-chat/internal/tts"
)

// streamText splits into four chunks under the test server's 20/60 bounds.
const streamText = "The quick brown fox jumps over the lazy dog. " +
	"Pack my box with five dozen liquor jugs. " +
	"How vexingly quick daft zebras jump! " +
	"Sphinx of black quartz, judge my vow."

func headerInt(t *testing.T, resp *http.Response, name string) int {
	t.Helper()
	n, err := strconv.Atoi(resp.Header.Get(name))
	if err != nil {
		t.Fatalf("%s header = %q: %v", name, resp.Header.Get(name), err)
	}
	return n
}

func TestStreamMultipartProtocol(t *testing.T) {
	ts := newTestServer(t, &tts.FakeEngine{})

	resp := postJSON(t, ts.URL+"/tts/stream", map[string]any{"text": streamText})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "multipart/x-mixed-replace; boundary=chunk" {
		t.Fatalf("content-type = %q", got)
	}
	total := headerInt(t, resp, "X-Chunks")
	if total < 2 {
		t.Fatalf("X-Chunks = %d, want multiple chunks", total)
	}
	if got := headerInt(t, resp, "X-Sample-Rate"); got != 44100 {
		t.Fatalf("X-Sample-Rate = %d, want 44100", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	const metaPrefix = "--chunk\r\nContent-Type: application/json\r\n\r\n"
	if !bytes.HasPrefix(body, []byte(metaPrefix)) {
		t.Fatalf("body does not open with a JSON metadata part")
	}
	if !bytes.HasSuffix(body, []byte("--chunk--\r\n")) {
		t.Fatalf("body does not end with the closing boundary")
	}

	audioParts := bytes.Count(body, []byte("--chunk\r\nContent-Type: audio/wav\r\n"))
	if audioParts != total {
		t.Fatalf("audio parts = %d, want %d", audioParts, total)
	}

	// First metadata object.
	rest := body[len(metaPrefix):]
	end := bytes.Index(rest, []byte("\r\n"))
	if end < 0 {
		t.Fatalf("unterminated metadata part")
	}
	var meta tts.ChunkMeta
	if err := json.Unmarshal(rest[:end], &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.Chunk != 1 {
		t.Fatalf("meta.Chunk = %d, want 1", meta.Chunk)
	}
	if meta.Total != total {
		t.Fatalf("meta.Total = %d, want %d", meta.Total, total)
	}
	if meta.Text == "" {
		t.Fatalf("meta.Text is empty")
	}
	if meta.Size <= 44 {
		t.Fatalf("meta.Size = %d, want a WAV payload larger than its header", meta.Size)
	}
}

func TestStreamMultipartEmptyText(t *testing.T) {
	ts := newTestServer(t, &tts.FakeEngine{})

	resp := postJSON(t, ts.URL+"/tts/stream", map[string]any{"text": "   "})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := headerInt(t, resp, "X-Chunks"); got != 0 {
		t.Fatalf("X-Chunks = %d, want 0", got)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "--chunk--\r\n" {
		t.Fatalf("body = %q, want only the closing boundary", body)
	}
}

func TestStreamMultipartEngineErrorOmitsTerminator(t *testing.T) {
	ts := newTestServer(t, &tts.FakeEngine{Err: errors.New("model exploded")})

	resp := postJSON(t, ts.URL+"/tts/stream", map[string]any{"text": streamText})
	defer resp.Body.Close()

	// Headers are already committed when the engine fails, so the error
	// surfaces as a stream that never reaches its closing boundary.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if bytes.HasSuffix(body, []byte("--chunk--\r\n")) {
		t.Fatalf("aborted stream must not carry the closing boundary")
	}
}

func TestStreamSimpleProtocol(t *testing.T) {
	ts := newTestServer(t, &tts.FakeEngine{})

	resp := postJSON(t, ts.URL+"/tts/stream-simple", map[string]any{"text": streamText})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	total := headerInt(t, resp, "X-Chunks")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) < 8 {
		t.Fatalf("body = %d bytes, want at least the 8-byte header", len(body))
	}
	if got := binary.LittleEndian.Uint32(body[0:4]); got != 44100 {
		t.Fatalf("header sample rate = %d, want 44100", got)
	}
	if got := int(binary.LittleEndian.Uint32(body[4:8])); got != total {
		t.Fatalf("header chunk count = %d, want %d", got, total)
	}

	frames := 0
	off := 8
	for off < len(body) {
		if off+4 > len(body) {
			t.Fatalf("truncated length prefix at offset %d", off)
		}
		n := int(binary.LittleEndian.Uint32(body[off : off+4]))
		off += 4
		if off+n > len(body) {
			t.Fatalf("frame at offset %d overruns body", off)
		}
		if n == 0 || n%2 != 0 {
			t.Fatalf("frame payload = %d bytes, want non-empty 16-bit samples", n)
		}
		off += n
		frames++
	}
	if want := 2*total - 1; frames != want {
		t.Fatalf("frames = %d, want %d (chunks interleaved with silence)", frames, want)
	}
}

func TestStreamSimpleEngineErrorStopsAfterHeader(t *testing.T) {
	ts := newTestServer(t, &tts.FakeEngine{Err: errors.New("model exploded")})

	resp := postJSON(t, ts.URL+"/tts/stream-simple", map[string]any{"text": streamText})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) != 8 {
		t.Fatalf("body = %d bytes, want header only", len(body))
	}
}

func TestStreamWebSocket(t *testing.T) {
	ts := newTestServer(t, &tts.FakeEngine{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/tts/stream-ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"text": streamText}); err != nil {
		t.Fatalf("send request: %v", err)
	}

	var metas, silences, binaries, doneChunks int
	done := false
	for !done {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		switch mt {
		case websocket.BinaryMessage:
			if !bytes.HasPrefix(data, []byte("RIFF")) {
				t.Fatalf("binary frame is not a WAV container")
			}
			binaries++
		case websocket.TextMessage:
			var probe struct {
				Done    bool `json:"done"`
				Chunks  int  `json:"chunks"`
				Chunk   int  `json:"chunk"`
				Silence bool `json:"silence"`
			}
			if err := json.Unmarshal(data, &probe); err != nil {
				t.Fatalf("decode text message: %v", err)
			}
			if probe.Done {
				doneChunks = probe.Chunks
				done = true
				break
			}
			metas++
			if probe.Silence {
				silences++
			}
		default:
			t.Fatalf("unexpected message type %d", mt)
		}
	}

	if doneChunks < 2 {
		t.Fatalf("done.chunks = %d, want multiple chunks", doneChunks)
	}
	if want := 2*doneChunks - 1; metas != want {
		t.Fatalf("meta frames = %d, want %d", metas, want)
	}
	if binaries != metas {
		t.Fatalf("binary frames = %d, want %d (one per metadata message)", binaries, metas)
	}
	if silences != doneChunks-1 {
		t.Fatalf("silence frames = %d, want %d", silences, doneChunks-1)
	}
}
