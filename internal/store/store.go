// Package store persists conversations, their message history, and the
// suggestions the assistant proposes. One YAML file per conversation keeps
// the cascade rule trivial: messages and suggestions live and die with
// their conversation file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rullmann/portfolio-now-sub005/internal/fileutils"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/pipelineerror"
	"github.com/rullmann/portfolio-now-sub005/internal/validation"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Store is the persistence half of the backend contract. Suggestions are
// never deleted directly; they go away only when their conversation does.
type Store interface {
	SaveChatMessage(msg models.ChatMessage) (models.ChatMessage, error)
	GetChatHistory(conversationID string, limit int) ([]models.ChatMessage, error)
	SaveChatSuggestion(suggestion models.Suggestion) (models.Suggestion, error)
	GetSuggestion(id string) (models.Suggestion, error)
	GetPendingSuggestions(conversationID string) ([]models.Suggestion, error)
	UpdateSuggestionStatus(id string, status models.SuggestionStatus) error
	GetConversation(id string) (models.Conversation, error)
	ListConversations() ([]models.Conversation, error)
	DeleteConversation(id string) error
}

// conversationFile is the on-disk document for one conversation.
type conversationFile struct {
	Conversation models.Conversation `yaml:"conversation"`
	Suggestions  []models.Suggestion `yaml:"suggestions,omitempty"`
}

// FileStore is the YAML file-backed Store. Files are written 0600 because
// chat content may contain account numbers and statement excerpts.
type FileStore struct {
	Dir string
}

// NewFileStore creates a store rooted at the given data directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) conversationPath(id string) string {
	return filepath.Join(s.Dir, "conversations", id+".yaml")
}

func (s *FileStore) load(conversationID string) (*conversationFile, error) {
	path := s.conversationPath(conversationID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &pipelineerror.NotFoundError{Entity: "conversation", ID: conversationID}
		}
		return nil, fmt.Errorf("error reading conversation file: %w", err)
	}

	// Files written here are always 0600; a looser mode means something else
	// touched the file. Advisory only, the conversation still loads.
	if info, statErr := os.Stat(path); statErr == nil {
		if permErr := validation.IsValidFilePermissions(info.Mode().Perm()); permErr != nil {
			log.WithField("conversation_id", conversationID).Warn(permErr.Error())
		}
	}

	var doc conversationFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing conversation file: %w", err)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *conversationFile) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling conversation: %w", err)
	}

	path := s.conversationPath(doc.Conversation.ID)
	if err := fileutils.WritePrivateFile(path, data); err != nil {
		return fmt.Errorf("error writing conversation file: %w", err)
	}

	log.WithField("conversation_id", doc.Conversation.ID).Debug("Saved conversation file")
	return nil
}

func isNotFound(err error) bool {
	var notFound *pipelineerror.NotFoundError
	return errors.As(err, &notFound)
}

// SaveChatMessage appends a message to its conversation, creating the
// conversation on first write. IDs and timestamps are assigned here if the
// caller left them empty.
func (s *FileStore) SaveChatMessage(msg models.ChatMessage) (models.ChatMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.ConversationID == "" {
		msg.ConversationID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	doc, err := s.load(msg.ConversationID)
	if err != nil {
		if !isNotFound(err) {
			return models.ChatMessage{}, err
		}
		doc = &conversationFile{
			Conversation: models.Conversation{
				ID:        msg.ConversationID,
				Title:     conversationTitle(msg),
				CreatedAt: msg.CreatedAt,
			},
		}
	}

	doc.Conversation.Messages = append(doc.Conversation.Messages, msg)
	if err := s.save(doc); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// conversationTitle derives a short title from the first message.
func conversationTitle(msg models.ChatMessage) string {
	title := strings.TrimSpace(msg.Content)
	if len(title) > 60 {
		title = title[:60]
	}
	if title == "" {
		title = "Conversation from " + msg.CreatedAt.Format("2006-01-02")
	}
	return title
}

// GetChatHistory returns the conversation's messages in order, keeping only
// the newest limit entries when limit is positive. An unknown conversation
// yields an empty history, not an error, so a fresh chat can start cold.
func (s *FileStore) GetChatHistory(conversationID string, limit int) ([]models.ChatMessage, error) {
	doc, err := s.load(conversationID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	messages := doc.Conversation.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// SaveChatSuggestion persists a proposed suggestion. New suggestions always
// start pending; the lifecycle manager owns every later transition.
func (s *FileStore) SaveChatSuggestion(suggestion models.Suggestion) (models.Suggestion, error) {
	if suggestion.ConversationID == "" {
		return models.Suggestion{}, fmt.Errorf("suggestion is missing a conversation id")
	}
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	if suggestion.Status == "" {
		suggestion.Status = models.StatusPending
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}

	doc, err := s.load(suggestion.ConversationID)
	if err != nil {
		return models.Suggestion{}, err
	}

	doc.Suggestions = append(doc.Suggestions, suggestion)
	if err := s.save(doc); err != nil {
		return models.Suggestion{}, err
	}
	return suggestion, nil
}

// GetSuggestion finds a suggestion by id across all conversations.
func (s *FileStore) GetSuggestion(id string) (models.Suggestion, error) {
	docs, err := s.loadAll()
	if err != nil {
		return models.Suggestion{}, err
	}
	for _, doc := range docs {
		for _, suggestion := range doc.Suggestions {
			if suggestion.ID == id {
				return suggestion, nil
			}
		}
	}
	return models.Suggestion{}, &pipelineerror.NotFoundError{Entity: "suggestion", ID: id}
}

// GetPendingSuggestions lists pending suggestions ordered by creation time.
// An empty conversation id means all conversations.
func (s *FileStore) GetPendingSuggestions(conversationID string) ([]models.Suggestion, error) {
	var docs []*conversationFile
	if conversationID != "" {
		doc, err := s.load(conversationID)
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		docs = append(docs, doc)
	} else {
		all, err := s.loadAll()
		if err != nil {
			return nil, err
		}
		docs = all
	}

	var pending []models.Suggestion
	for _, doc := range docs {
		for _, suggestion := range doc.Suggestions {
			if suggestion.Status == models.StatusPending {
				pending = append(pending, suggestion)
			}
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// UpdateSuggestionStatus writes a new status for the given suggestion. The
// store does not police transitions; the lifecycle manager does.
func (s *FileStore) UpdateSuggestionStatus(id string, status models.SuggestionStatus) error {
	docs, err := s.loadAll()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		for i := range doc.Suggestions {
			if doc.Suggestions[i].ID == id {
				doc.Suggestions[i].Status = status
				return s.save(doc)
			}
		}
	}
	return &pipelineerror.NotFoundError{Entity: "suggestion", ID: id}
}

// GetConversation loads one conversation with its full history.
func (s *FileStore) GetConversation(id string) (models.Conversation, error) {
	doc, err := s.load(id)
	if err != nil {
		return models.Conversation{}, err
	}
	return doc.Conversation, nil
}

// ListConversations returns all conversations ordered oldest first.
func (s *FileStore) ListConversations() ([]models.Conversation, error) {
	docs, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	conversations := make([]models.Conversation, 0, len(docs))
	for _, doc := range docs {
		conversations = append(conversations, doc.Conversation)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.Before(conversations[j].CreatedAt)
	})
	return conversations, nil
}

// DeleteConversation removes a conversation file and, with it, every
// message and suggestion the conversation owns.
func (s *FileStore) DeleteConversation(id string) error {
	path := s.conversationPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &pipelineerror.NotFoundError{Entity: "conversation", ID: id}
		}
		return fmt.Errorf("error deleting conversation file: %w", err)
	}
	log.WithField("conversation_id", id).Debug("Deleted conversation")
	return nil
}

func (s *FileStore) loadAll() ([]*conversationFile, error) {
	dir := filepath.Join(s.Dir, "conversations")
	files, err := fileutils.ListFilesWithExtension(dir, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("error listing conversations directory: %w", err)
	}

	var docs []*conversationFile
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ".yaml")
		doc, err := s.load(id)
		if err != nil {
			log.WithField("conversation_id", id).Warnf("Skipping unreadable conversation file: %v", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
