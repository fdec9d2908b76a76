// Package assistant talks to the AI model behind the chat panel. The model
// answers in prose and may append a JSON suggestion block; both halves come
// back in a Reply.
package assistant

import (
	"context"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Request is one assistant call: the context window plus the user profile
// baked into the system prompt.
type Request struct {
	ConversationID string
	Messages       []models.ChatMessage
	BaseCurrency   string
	UserName       string
}

// Reply is the assistant's answer. Suggestions are proposals only; nothing
// here is persisted or executed.
type Reply struct {
	Response    string
	Suggestions []models.Suggestion
}

// Client is the AI provider abstraction. Implementations interact with an
// external model service and must be safe to replace with a mock in tests.
type Client interface {
	Chat(ctx context.Context, req Request) (Reply, error)
	Close() error
}
