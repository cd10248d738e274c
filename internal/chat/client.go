// Package chat wraps the conversational LLM backend used by the /chat route.
package chat

import "context"

// Message is one prior conversation turn supplied by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the model's answer plus the identifier of whatever produced it.
type Reply struct {
	Text  string
	Model string
}

// Client produces a reply to user text, optionally conditioned on prior
// turns. Requests are stateless; history travels with each call.
type Client interface {
	Respond(ctx context.Context, text string, history []Message) (Reply, error)
}
