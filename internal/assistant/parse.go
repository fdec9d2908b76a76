package assistant

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rullmann/portfolio-now-sub005/internal/models"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// rawSuggestion mirrors one entry of the model's suggestion block. The
// payload stays raw: the executor decodes it at confirmation time.
type rawSuggestion struct {
	ActionKind  string          `json:"actionKind"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
}

type suggestionBlock struct {
	Suggestions []rawSuggestion `json:"suggestions"`
}

// ParseCompletion splits a model completion into prose and proposed
// suggestions. The suggestion block may arrive fenced or as a bare trailing
// JSON object; a block that fails to parse degrades to plain prose rather
// than erroring, so a sloppy completion never breaks the chat.
func ParseCompletion(text string) Reply {
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		if suggestions, ok := decodeBlock(match[1]); ok {
			prose := strings.TrimSpace(strings.Replace(text, match[0], "", 1))
			return Reply{Response: prose, Suggestions: suggestions}
		}
	}

	// Bare trailing object, no fence.
	if idx := strings.Index(text, `{"suggestions"`); idx >= 0 {
		if suggestions, ok := decodeBlock(text[idx:]); ok {
			return Reply{
				Response:    strings.TrimSpace(text[:idx]),
				Suggestions: suggestions,
			}
		}
	}

	return Reply{Response: strings.TrimSpace(text)}
}

func decodeBlock(raw string) ([]models.Suggestion, bool) {
	var block suggestionBlock
	if err := json.Unmarshal([]byte(raw), &block); err != nil || len(block.Suggestions) == 0 {
		return nil, false
	}

	suggestions := make([]models.Suggestion, 0, len(block.Suggestions))
	for _, r := range block.Suggestions {
		if r.ActionKind == "" {
			continue
		}
		// Unknown kinds are kept verbatim: the executor's generic fallback
		// forwards the raw kind to the backend.
		suggestions = append(suggestions, models.Suggestion{
			ActionKind:  models.ActionKind(r.ActionKind),
			Description: r.Description,
			Payload:     string(r.Payload),
			Status:      models.StatusPending,
		})
	}
	if len(suggestions) == 0 {
		return nil, false
	}
	return suggestions, true
}
