package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/pipelineerror"
)

// MockStore is an in-memory Store for testing.
type MockStore struct {
	Messages    []models.ChatMessage
	Suggestions []models.Suggestion

	// Error flags for testing error conditions
	SaveChatMessageError        error
	GetChatHistoryError         error
	SaveChatSuggestionError     error
	GetSuggestionError          error
	GetPendingSuggestionsError  error
	UpdateSuggestionStatusError error
	GetConversationError        error
	ListConversationsError      error
	DeleteConversationError     error

	// Calls counts status updates, letting tests assert a transition
	// happened exactly once.
	StatusUpdates []models.SuggestionStatus

	nextID int
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) assignID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// SaveChatMessage records the message in memory.
func (m *MockStore) SaveChatMessage(msg models.ChatMessage) (models.ChatMessage, error) {
	if m.SaveChatMessageError != nil {
		return models.ChatMessage{}, m.SaveChatMessageError
	}
	if msg.ID == "" {
		msg.ID = m.assignID("msg")
	}
	if msg.ConversationID == "" {
		msg.ConversationID = m.assignID("conv")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.Messages = append(m.Messages, msg)
	return msg, nil
}

// GetChatHistory returns the stored messages for a conversation.
func (m *MockStore) GetChatHistory(conversationID string, limit int) ([]models.ChatMessage, error) {
	if m.GetChatHistoryError != nil {
		return nil, m.GetChatHistoryError
	}
	var history []models.ChatMessage
	for _, msg := range m.Messages {
		if msg.ConversationID == conversationID {
			history = append(history, msg)
		}
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

// SaveChatSuggestion records the suggestion in memory.
func (m *MockStore) SaveChatSuggestion(suggestion models.Suggestion) (models.Suggestion, error) {
	if m.SaveChatSuggestionError != nil {
		return models.Suggestion{}, m.SaveChatSuggestionError
	}
	if suggestion.ID == "" {
		suggestion.ID = m.assignID("sug")
	}
	if suggestion.Status == "" {
		suggestion.Status = models.StatusPending
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	m.Suggestions = append(m.Suggestions, suggestion)
	return suggestion, nil
}

// GetSuggestion finds a stored suggestion by id.
func (m *MockStore) GetSuggestion(id string) (models.Suggestion, error) {
	if m.GetSuggestionError != nil {
		return models.Suggestion{}, m.GetSuggestionError
	}
	for _, suggestion := range m.Suggestions {
		if suggestion.ID == id {
			return suggestion, nil
		}
	}
	return models.Suggestion{}, &pipelineerror.NotFoundError{Entity: "suggestion", ID: id}
}

// GetPendingSuggestions returns pending suggestions, optionally filtered by
// conversation.
func (m *MockStore) GetPendingSuggestions(conversationID string) ([]models.Suggestion, error) {
	if m.GetPendingSuggestionsError != nil {
		return nil, m.GetPendingSuggestionsError
	}
	var pending []models.Suggestion
	for _, suggestion := range m.Suggestions {
		if suggestion.Status != models.StatusPending {
			continue
		}
		if conversationID != "" && suggestion.ConversationID != conversationID {
			continue
		}
		pending = append(pending, suggestion)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// UpdateSuggestionStatus updates the stored suggestion's status.
func (m *MockStore) UpdateSuggestionStatus(id string, status models.SuggestionStatus) error {
	if m.UpdateSuggestionStatusError != nil {
		return m.UpdateSuggestionStatusError
	}
	for i := range m.Suggestions {
		if m.Suggestions[i].ID == id {
			m.Suggestions[i].Status = status
			m.StatusUpdates = append(m.StatusUpdates, status)
			return nil
		}
	}
	return &pipelineerror.NotFoundError{Entity: "suggestion", ID: id}
}

// GetConversation reconstructs a conversation from the stored messages.
func (m *MockStore) GetConversation(id string) (models.Conversation, error) {
	if m.GetConversationError != nil {
		return models.Conversation{}, m.GetConversationError
	}
	messages, _ := m.GetChatHistory(id, 0)
	if len(messages) == 0 {
		return models.Conversation{}, &pipelineerror.NotFoundError{Entity: "conversation", ID: id}
	}
	return models.Conversation{
		ID:        id,
		Messages:  messages,
		CreatedAt: messages[0].CreatedAt,
	}, nil
}

// ListConversations lists the distinct conversations seen so far.
func (m *MockStore) ListConversations() ([]models.Conversation, error) {
	if m.ListConversationsError != nil {
		return nil, m.ListConversationsError
	}
	seen := map[string]bool{}
	var conversations []models.Conversation
	for _, msg := range m.Messages {
		if seen[msg.ConversationID] {
			continue
		}
		seen[msg.ConversationID] = true
		conversation, err := m.GetConversation(msg.ConversationID)
		if err != nil {
			continue
		}
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

// DeleteConversation removes the conversation's messages and suggestions.
func (m *MockStore) DeleteConversation(id string) error {
	if m.DeleteConversationError != nil {
		return m.DeleteConversationError
	}
	found := false
	var messages []models.ChatMessage
	for _, msg := range m.Messages {
		if msg.ConversationID == id {
			found = true
			continue
		}
		messages = append(messages, msg)
	}
	var suggestions []models.Suggestion
	for _, suggestion := range m.Suggestions {
		if suggestion.ConversationID == id {
			found = true
			continue
		}
		suggestions = append(suggestions, suggestion)
	}
	if !found {
		return &pipelineerror.NotFoundError{Entity: "conversation", ID: id}
	}
	m.Messages = messages
	m.Suggestions = suggestions
	return nil
}
