// Package suggestions implements the pending action management commands.
package suggestions

import (
	"encoding/json"
	"fmt"

	"github.com/rullmann/portfolio-now-sub005/cmd/root"
	"github.com/spf13/cobra"
)

// Cmd represents the suggestions command group.
var Cmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Manage pending assistant suggestions",
	Long: `List the actions the assistant has proposed and confirm or decline them.
Confirming runs the action and marks the suggestion confirmed only after the
run finished; declining discards it without touching the portfolio.`,
	RunE: listFunc,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending suggestions",
	RunE:  listFunc,
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <id>",
	Short: "Execute a suggestion and mark it confirmed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := root.App.GetSuggestionManager().Confirm(cmd.Context(), args[0])
		if summary != "" {
			fmt.Println(summary)
		}
		return err
	},
}

var declineCmd = &cobra.Command{
	Use:   "decline <id>",
	Short: "Discard a suggestion without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := root.App.GetSuggestionManager().Decline(args[0]); err != nil {
			return err
		}
		fmt.Println("Declined.")
		return nil
	},
}

var declineAllCmd = &cobra.Command{
	Use:   "decline-all",
	Short: "Discard all pending suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := root.App.GetSuggestionManager().DeclineAll(root.ConversationID); err != nil {
			return err
		}
		fmt.Println("All pending suggestions declined.")
		return nil
	},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(confirmCmd)
	Cmd.AddCommand(declineCmd)
	Cmd.AddCommand(declineAllCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	pending, err := root.App.GetSuggestionManager().Pending(root.ConversationID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("No pending suggestions.")
		return nil
	}
	for _, s := range pending {
		fmt.Printf("%s  %s\n", s.ID, s.ActionKind)
		if s.Description != "" {
			fmt.Printf("    %s\n", s.Description)
		}
		if !s.ActionKind.Known() {
			fmt.Println("    (no dedicated command, confirming runs it as a generic action)")
		}
		if !json.Valid([]byte(s.Payload)) {
			fmt.Println("    (payload is malformed, confirming will report an error)")
		}
	}
	return nil
}
