// Package chat provides the interactive assistant session command.
package chat

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rullmann/portfolio-now-sub005/cmd/root"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/spf13/cobra"
)

// Cmd represents the chat command.
var Cmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the portfolio assistant",
	Long: `Start an interactive session with the portfolio assistant. Pass a message
to send a single turn, or run without arguments for a REPL. Attach an image
or document to the next message with /attach <file>; confirm or decline
proposed suggestions with /confirm <n> and /decline <n>.`,
	RunE: chatFunc,
}

var attachFiles []string

func init() {
	Cmd.Flags().StringArrayVarP(&attachFiles, "attach", "a", nil, "File to attach to the message (repeatable)")
}

func chatFunc(cmd *cobra.Command, args []string) error {
	session := root.App.GetSession()
	if session == nil {
		return fmt.Errorf("assistant is disabled: set ai.enabled and GEMINI_API_KEY")
	}

	conversationID := root.ConversationID
	attachments, err := loadAttachments(attachFiles)
	if err != nil {
		return err
	}

	// Single-turn mode.
	if len(args) > 0 {
		return runTurn(cmd, conversationID, strings.Join(args, " "), attachments)
	}

	// REPL mode.
	fmt.Println("Chatting with the portfolio assistant. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	var pending []models.Suggestion
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, "/attach "):
			file := strings.TrimSpace(strings.TrimPrefix(line, "/attach "))
			attachment, err := loadAttachment(file)
			if err != nil {
				fmt.Printf("Could not attach %s: %v\n", file, err)
				continue
			}
			attachments = append(attachments, attachment)
			fmt.Printf("Attached %s (%s)\n", file, attachment.MIMEType)
			continue
		case strings.HasPrefix(line, "/confirm"):
			pending = decide(cmd, line, pending, true)
			continue
		case strings.HasPrefix(line, "/decline"):
			pending = decide(cmd, line, pending, false)
			continue
		}

		turn, err := root.App.GetSession().Send(cmd.Context(), conversationID, line, attachments)
		if err != nil {
			fmt.Printf("Assistant error: %v\n", err)
			conversationID = turn.ConversationID
			continue
		}
		conversationID = turn.ConversationID
		attachments = nil

		fmt.Println(turn.Response)
		pending = turn.Suggestions
		printSuggestions(pending)
	}
}

func runTurn(cmd *cobra.Command, conversationID, content string, attachments []models.Attachment) error {
	turn, err := root.App.GetSession().Send(cmd.Context(), conversationID, content, attachments)
	if err != nil {
		return err
	}
	fmt.Println(turn.Response)
	printSuggestions(turn.Suggestions)
	if len(turn.Suggestions) > 0 {
		fmt.Printf("\nUse 'portfolio-now suggestions confirm <id>' to act on a suggestion.\n")
	}
	return nil
}

// decide applies /confirm or /decline to a listed suggestion.
func decide(cmd *cobra.Command, line string, pending []models.Suggestion, confirm bool) []models.Suggestion {
	fields := strings.Fields(line)
	index := 1
	if len(fields) > 1 {
		if _, err := fmt.Sscanf(fields[1], "%d", &index); err != nil {
			fmt.Printf("Not a suggestion number: %s\n", fields[1])
			return pending
		}
	}
	if index < 1 || index > len(pending) {
		fmt.Println("No such suggestion.")
		return pending
	}
	chosen := pending[index-1]

	if confirm {
		summary, err := root.App.GetSuggestionManager().Confirm(cmd.Context(), chosen.ID)
		if err != nil {
			fmt.Printf("Confirmation failed: %v\n", err)
			return pending
		}
		fmt.Println(summary)
	} else {
		if err := root.App.GetSuggestionManager().Decline(chosen.ID); err != nil {
			fmt.Printf("Decline failed: %v\n", err)
			return pending
		}
		fmt.Println("Declined.")
	}
	return append(pending[:index-1], pending[index:]...)
}

func printSuggestions(suggestions []models.Suggestion) {
	for i, s := range suggestions {
		fmt.Printf("  [%d] %s (%s)\n", i+1, s.Description, s.ActionKind)
	}
	if len(suggestions) > 0 {
		fmt.Println("Confirm with /confirm <n>, decline with /decline <n>.")
	}
}

func loadAttachments(files []string) ([]models.Attachment, error) {
	var attachments []models.Attachment
	for _, file := range files {
		attachment, err := loadAttachment(file)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}

func loadAttachment(file string) (models.Attachment, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return models.Attachment{}, err
	}
	return models.Attachment{MIMEType: mimeTypeOf(file), Data: data}, nil
}

func mimeTypeOf(file string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(file), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
