package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// systemPrompt frames the assistant as a portfolio helper and pins the JSON
// contract for suggestions. The model must keep prose and the suggestion
// block separable.
const systemPrompt = `You are a personal investment portfolio assistant%s. The user's base currency is %s.

You help with portfolio questions and with extracting transactions from bank and broker documents the user pastes or attaches.

When you propose an action the user must approve, append exactly one fenced JSON block to your answer:

` + "```json" + `
{"suggestions": [{"actionKind": "<kind>", "description": "<one line>", "payload": <object>}]}
` + "```" + `

Action kinds: transaction_create, portfolio_transfer, transaction_delete, extracted_transactions. For extracted_transactions the payload is {"transactions": [...]} where each transaction has date, type, securityName, isin, wkn, ticker, shares, amount, currency, grossAmount, grossCurrency, exchangeRate, fees, taxes as available. Keep dates exactly as they appear in the document. Never invent values.`

// GeminiClient is the Gemini-backed assistant Client.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient creates an assistant client for the given model name.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI API key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Chat sends the context window and parses the completion into prose plus
// proposed suggestions. Attachments ride only on the newest message; older
// attachments were already seen and are not replayed.
func (c *GeminiClient) Chat(ctx context.Context, req Request) (Reply, error) {
	if len(req.Messages) == 0 {
		return Reply{}, fmt.Errorf("assistant request has no messages")
	}

	session := c.model.StartChat()
	session.History = buildHistory(req)

	newest := req.Messages[len(req.Messages)-1]
	parts := []genai.Part{genai.Text(newest.Content)}
	for _, attachment := range newest.Attachments {
		parts = append(parts, genai.Blob{MIMEType: attachment.MIMEType, Data: attachment.Data})
	}

	resp, err := session.SendMessage(ctx, parts...)
	if err != nil {
		return Reply{}, fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Reply{}, fmt.Errorf("no response from Gemini API")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	reply := ParseCompletion(b.String())
	log.WithFields(logrus.Fields{
		logging.FieldConversationID: req.ConversationID,
		logging.FieldCount:          len(reply.Suggestions),
	}).Debug("Assistant reply parsed")
	return reply, nil
}

// buildHistory converts the window into Gemini chat turns. The system
// prompt leads as a pinned user turn with a short acknowledgement, and the
// newest message is left out because it is sent as the live turn.
func buildHistory(req Request) []*genai.Content {
	named := ""
	if req.UserName != "" {
		named = " for " + req.UserName
	}
	currency := req.BaseCurrency
	if currency == "" {
		currency = "EUR"
	}

	history := []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(fmt.Sprintf(systemPrompt, named, currency))}},
		{Role: "model", Parts: []genai.Part{genai.Text("Understood.")}},
	}
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history
}
