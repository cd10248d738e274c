package stt

import "context"

// MockRecognizer returns canned transcriptions. It stands in for whisper in
// tests and when no model is installed.
type MockRecognizer struct {
	Text     string
	Language string
	Err      error
}

func (m *MockRecognizer) Transcribe(_ context.Context, audio []byte) (Result, error) {
	if m.Err != nil {
		return Result{}, m.Err
	}
	lang := m.Language
	if lang == "" {
		lang = "en"
	}
	text := m.Text
	if text == "" && len(audio) > 0 {
		text = "simulated transcription"
	}
	return Result{Text: text, Language: lang}, nil
}
