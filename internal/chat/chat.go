// Package chat orchestrates one conversation turn: persist the user's
// message, build the context window, call the assistant, and persist what
// came back.
package chat

import (
	"context"
	"fmt"

	"github.com/rullmann/portfolio-now-sub005/internal/assistant"
	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/store"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Window returns the newest n messages of the history, always including the
// just-sent message at the end. Attachments stay only on the newest message
// so old images are never replayed into the request.
func Window(history []models.ChatMessage, justSent models.ChatMessage, n int) []models.ChatMessage {
	window := make([]models.ChatMessage, 0, len(history)+1)
	window = append(window, history...)

	// The just-sent message may already be the tail of the persisted
	// history; never include it twice.
	if len(window) == 0 || window[len(window)-1].ID != justSent.ID {
		window = append(window, justSent)
	}

	if n > 0 && len(window) > n {
		window = window[len(window)-n:]
	}

	for i := range window[:len(window)-1] {
		window[i].Attachments = nil
	}
	return window
}

// Turn is the outcome of one conversation turn.
type Turn struct {
	ConversationID string
	UserMessage    models.ChatMessage
	Response       string
	Suggestions    []models.Suggestion
}

// Session drives conversation turns against the store and the assistant.
type Session struct {
	store      store.Store
	client     assistant.Client
	windowSize int

	BaseCurrency string
	UserName     string
}

// NewSession creates a chat session. windowSize is the context window N.
func NewSession(s store.Store, client assistant.Client, windowSize int) *Session {
	return &Session{store: s, client: client, windowSize: windowSize}
}

// Send runs one turn. The user's message is persisted before the assistant
// is called, so a failing assistant never loses what the user typed; the
// turn's error is surfaced and the conversation stays usable.
func (s *Session) Send(ctx context.Context, conversationID, content string, attachments []models.Attachment) (Turn, error) {
	userMsg, err := s.store.SaveChatMessage(models.ChatMessage{
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        content,
		Attachments:    attachments,
	})
	if err != nil {
		return Turn{}, fmt.Errorf("failed to save chat message: %w", err)
	}
	turn := Turn{ConversationID: userMsg.ConversationID, UserMessage: userMsg}

	history, err := s.store.GetChatHistory(userMsg.ConversationID, 0)
	if err != nil {
		log.WithField(logging.FieldConversationID, userMsg.ConversationID).
			Warnf("Could not load history, sending the new message alone: %v", err)
		history = nil
	}

	reply, err := s.client.Chat(ctx, assistant.Request{
		ConversationID: userMsg.ConversationID,
		Messages:       Window(history, userMsg, s.windowSize),
		BaseCurrency:   s.BaseCurrency,
		UserName:       s.UserName,
	})
	if err != nil {
		return turn, fmt.Errorf("assistant request failed: %w", err)
	}

	assistantMsg, err := s.store.SaveChatMessage(models.ChatMessage{
		ConversationID: userMsg.ConversationID,
		Role:           models.RoleAssistant,
		Content:        reply.Response,
	})
	if err != nil {
		return turn, fmt.Errorf("failed to save assistant message: %w", err)
	}

	for _, proposed := range reply.Suggestions {
		proposed.ConversationID = userMsg.ConversationID
		proposed.MessageID = assistantMsg.ID
		saved, err := s.store.SaveChatSuggestion(proposed)
		if err != nil {
			log.WithFields(logrus.Fields{
				logging.FieldConversationID: userMsg.ConversationID,
				logging.FieldActionKind:     string(proposed.ActionKind),
			}).Errorf("Failed to persist suggestion: %v", err)
			continue
		}
		turn.Suggestions = append(turn.Suggestions, saved)
	}

	turn.Response = reply.Response
	return turn, nil
}
