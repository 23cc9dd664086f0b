package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/profilekeeper/internal/config"
)

var keyringAccount string

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manage the portal password in the OS keychain",
	Long: "Stores or removes the Naukri password under the \"" + config.KeyringService + "\" keychain service. " +
		"Set PROFILEKEEPER_KEYRING_ACCOUNT to the same account so the password is picked up when NAUKRI_PASSWORD is unset.",
}

var keyringSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the portal password (read from stdin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		account, err := resolveKeyringAccount()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", account)
		password, err := readSecret(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if err := config.StorePassword(account, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s\n", account)
		return nil
	},
}

var keyringDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored portal password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		account, err := resolveKeyringAccount()
		if err != nil {
			return err
		}
		if err := config.DeletePassword(account); err != nil {
			return fmt.Errorf("delete password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted password for %s\n", account)
		return nil
	},
}

func init() {
	keyringCmd.PersistentFlags().StringVar(&keyringAccount, "account", "",
		"Keychain account (default PROFILEKEEPER_KEYRING_ACCOUNT, then NAUKRI_USERNAME)")
	keyringCmd.AddCommand(keyringSetCmd, keyringDeleteCmd)
	rootCmd.AddCommand(keyringCmd)
}

func resolveKeyringAccount() (string, error) {
	for _, candidate := range []string{
		keyringAccount,
		os.Getenv("PROFILEKEEPER_KEYRING_ACCOUNT"),
		os.Getenv("NAUKRI_USERNAME"),
	} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c, nil
		}
	}
	return "", errors.New("no keychain account: pass --account or set PROFILEKEEPER_KEYRING_ACCOUNT")
}

// readSecret reads a single line, accepting input without a trailing newline.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
