package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Logout-specific flags
var logoutAll bool

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored GitHub credentials",
	Long: `Remove stored credentials for the configured host.

Examples:
  gh-cli auth logout          # Remove the token for the configured host
  gh-cli auth logout --all    # Remove every stored token`,
	RunE: runAuthLogout,
}

func init() {
	authLogoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Remove tokens for every host")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openTokenStore(cfg)
	if err != nil {
		return err
	}

	if logoutAll {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing stored tokens: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed all stored tokens.")
		return nil
	}

	if err := store.Delete(cfg.Host); err != nil {
		return fmt.Errorf("removing token for %s: %w", cfg.Host, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", cfg.Host)
	return nil
}
