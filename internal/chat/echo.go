package chat

import "context"

// Echo answers every turn by repeating the input. It keeps the voice
// pipeline testable end to end when no LLM backend is configured.
type Echo struct{}

func (Echo) Respond(_ context.Context, text string, _ []Message) (Reply, error) {
	return Reply{Text: "You said: " + text, Model: "echo-test"}, nil
}
