package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AstroAir/github-cli/internal/config"
	"github.com/AstroAir/github-cli/internal/tokenstore"
)

// Flags shared by the auth subcommands.
var authQuiet bool

// authCmd is the parent for the authentication subcommands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate gh-cli with GitHub",
	Long: `Manage authentication state for gh-cli.

The login flow uses the OAuth device grant: you confirm a short code on
the GitHub verification page and the CLI picks up the approval. Tokens
are stored under your user config directory with owner-only permissions.`,
}

func init() {
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false,
		"Suppress progress output, print only the outcome")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

// loadConfig builds the effective configuration for an auth command.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// openTokenStore opens the persistent token store for the configuration.
func openTokenStore(cfg config.Config) (*tokenstore.Store, error) {
	store, err := tokenstore.NewStore(tokenstore.Config{
		StorageDir: cfg.TokenStorageDir,
		FileMode:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening token store: %w", err)
	}
	return store, nil
}
