// Package extract implements the document extraction preview command.
package extract

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rullmann/portfolio-now-sub005/cmd/root"
	"github.com/rullmann/portfolio-now-sub005/internal/common"
	"github.com/rullmann/portfolio-now-sub005/internal/extraction"
	"github.com/rullmann/portfolio-now-sub005/internal/models"
	"github.com/rullmann/portfolio-now-sub005/internal/validation"
	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputCSV  string
	autoAccept bool
)

// Cmd represents the extract command.
var Cmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract transactions from a statement document",
	Long: `Send a bank or broker document to the assistant, preview the extracted
transactions after normalization and holdings enrichment, and confirm or
decline the import. Records with unresolvable dates or missing fields are
shown with warnings instead of being dropped.`,
	RunE: extractFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Document to extract from (image or PDF)")
	Cmd.Flags().StringVarP(&outputCSV, "output", "o", "", "Also export the preview as CSV")
	Cmd.Flags().BoolVarP(&autoAccept, "yes", "y", false, "Import without asking")
	if err := Cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
}

const extractPrompt = "Extract every transaction from the attached document and propose importing them."

func extractFunc(cmd *cobra.Command, args []string) error {
	session := root.App.GetSession()
	if session == nil {
		return fmt.Errorf("assistant is disabled: set ai.enabled and GEMINI_API_KEY")
	}

	if err := validation.IsValidDocument(inputFile); err != nil {
		return err
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", inputFile, err)
	}
	attachment := models.Attachment{MIMEType: mimeTypeOf(inputFile), Data: data}

	root.Log.WithField("file", inputFile).Info("Sending document to the assistant")
	turn, err := session.Send(cmd.Context(), root.ConversationID, extractPrompt, []models.Attachment{attachment})
	if err != nil {
		return err
	}

	var importSuggestion *models.Suggestion
	for i := range turn.Suggestions {
		if turn.Suggestions[i].ActionKind == models.ActionExtractedTransactions {
			importSuggestion = &turn.Suggestions[i]
			break
		}
	}
	if importSuggestion == nil {
		fmt.Println(turn.Response)
		fmt.Println("The assistant found no transactions to import.")
		return nil
	}

	extracted, diagnostics, err := extraction.ParsePayload(importSuggestion.Payload)
	if err != nil {
		return fmt.Errorf("extraction payload unusable: %w", err)
	}
	normalized := extraction.Assemble(extracted)
	normalized = root.App.GetEnricher().Enrich(cmd.Context(), normalized)
	normalized = extraction.ApplyDeliveryMode(normalized, root.App.GetConfig().Import.DeliveryMode)

	fmt.Printf("Extracted %d transaction(s):\n", len(normalized))
	for i, tx := range normalized {
		fmt.Printf("  %2d. %s\n", i+1, extraction.PreviewLine(tx))
		if missing := extraction.MissingFields(tx); len(missing) > 0 {
			fmt.Printf("      ! will be skipped on import: missing %s\n", strings.Join(missing, ", "))
		}
	}
	for _, d := range diagnostics {
		fmt.Printf("  note: %s\n", d)
	}

	if outputCSV != "" {
		if err := common.WriteTransactionsToCSV(normalized, outputCSV); err != nil {
			return err
		}
		fmt.Printf("Preview written to %s\n", outputCSV)
	}

	if !autoAccept && !askConfirmation() {
		if err := root.App.GetSuggestionManager().Decline(importSuggestion.ID); err != nil {
			return err
		}
		fmt.Println("Declined, nothing imported.")
		return nil
	}

	summary, err := root.App.GetSuggestionManager().Confirm(cmd.Context(), importSuggestion.ID)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

func askConfirmation() bool {
	fmt.Print("Import these transactions? [y/N] ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
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
