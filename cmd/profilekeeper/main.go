// Package main provides the profilekeeper CLI: the HTTP facade and scheduler,
// one-shot actions, and keychain management.
package main

import (
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata" // Asia/Kolkata must resolve in a scratch container

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "profilekeeper",
	Short: "Keeps a Naukri profile fresh",
	Long: "profilekeeper logs into a Naukri account (answering emailed OTP challenges) and periodically " +
		"toggles a profile skill and re-uploads the resume so the profile stays near the top of recruiter searches.",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if logLevel == "" {
			logLevel = envOr("PROFILEKEEPER_LOG_LEVEL", "info")
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default PROFILEKEEPER_LOG_LEVEL or info)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
