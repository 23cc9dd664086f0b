package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/profilekeeper/internal/config"
	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

var runCmd = &cobra.Command{
	Use:   "run <update-skills|reupload-resume>",
	Short: "Run one action immediately and exit",
	Long: "Runs a single action against the portal, logging in (and answering an OTP challenge) as needed. " +
		"The outcome is printed as JSON; the exit status is non-zero when the action fails.",
	ValidArgs: []string{string(model.ActionUpdateSkills), string(model.ActionReuploadResume)},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

type runOutput struct {
	Action   string `json:"action"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
	Skills   string `json:"skills,omitempty"`
}

func runOnce(cmd *cobra.Command, args []string) error {
	action := model.ActionKind(args[0])

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, runErr := a.executor.Run(ctx, action, model.TriggerCLI)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(runOutput{
		Action:   string(result.Action),
		Status:   string(result.Status),
		Message:  result.Message,
		Attempts: result.Attempts,
		Skills:   result.Skills,
	}); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return runErr
}
