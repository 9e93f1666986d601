package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/AstroAir/github-cli/internal/cli"
	"github.com/AstroAir/github-cli/internal/tokenstore"
	ghstrings "github.com/AstroAir/github-cli/pkg/strings"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the stored credentials and their validity.

The status includes expired tokens so you can see which hosts need a
fresh login.

Examples:
  gh-cli auth status    # Show every stored credential`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openTokenStore(cfg)
	if err != nil {
		return err
	}

	tokens := store.List()
	if len(tokens) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Not logged in to %s. Run: gh-cli auth login\n", cfg.Host)
		return &cli.AuthRequiredError{Host: cfg.Host}
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("HOST"),
		text.FgHiCyan.Sprint("LOGIN"),
		text.FgHiCyan.Sprint("SCOPES"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("EXPIRES"),
	})

	anyValid := false
	for _, stored := range tokens {
		// oauth2.Token.Valid covers both expiry and an empty access token.
		valid := stored.Token().ToOAuth2Token().Valid()
		if valid {
			anyValid = true
		}
		t.AppendRow(table.Row{
			stored.Host,
			stored.Login,
			ghstrings.TruncateLine(cli.FormatScopes(stored.Scope), ghstrings.DefaultScopeMaxLen),
			formatTokenStatus(valid),
			formatExpiry(stored),
		})
	}
	t.Render()

	if !anyValid {
		return &cli.AuthRequiredError{Host: cfg.Host}
	}
	return nil
}

// formatTokenStatus formats token validity with colors.
func formatTokenStatus(valid bool) string {
	if valid {
		return text.FgGreen.Sprint("Valid")
	}
	return text.FgRed.Sprint("Expired")
}

// formatExpiry renders the expiry time relative to now.
func formatExpiry(stored *tokenstore.StoredToken) string {
	if stored.Expiry.IsZero() {
		return text.FgHiBlack.Sprint("never")
	}
	remaining := time.Until(stored.Expiry)
	if remaining <= 0 {
		return fmt.Sprintf("%s ago", (-remaining).Round(time.Minute))
	}
	return fmt.Sprintf("in %s", remaining.Round(time.Minute))
}
