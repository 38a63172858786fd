package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Show a gallery session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSession(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := a.catalog.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(session)
	}

	fmt.Printf("Session:  %s\n", session.ID)
	fmt.Printf("Name:     %s\n", session.Name)
	fmt.Printf("Mode:     %s\n", session.Mode)
	fmt.Printf("Photos:   %d\n", session.PhotoCount)
	if !session.ExpiresAt.IsZero() {
		state := "active"
		if session.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Printf("Expires:  %s (%s)\n", session.ExpiresAt.Format(time.RFC3339), state)
	}
	if session.WelcomeMessage != "" {
		fmt.Printf("\n%s\n", session.WelcomeMessage)
	}
	return nil
}
