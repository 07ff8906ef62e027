package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DanyoungYoo/my-chatbot/internal/log"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the terms of service",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

// runAsk answers one question on the command line and exits.
// Useful for smoke-testing the corpus and API key without starting a server.
func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := newEngine(ctx, cfg, log.NewNop())
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	answer, err := engine.Answer(ctx, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(answer)
	return nil
}
