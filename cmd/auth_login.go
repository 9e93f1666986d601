package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AstroAir/github-cli/internal/api"
	"github.com/AstroAir/github-cli/internal/cli"
	"github.com/AstroAir/github-cli/internal/deviceflow"
	"github.com/AstroAir/github-cli/internal/environment"
	"github.com/AstroAir/github-cli/internal/retry"
	"github.com/AstroAir/github-cli/internal/tokenstore"
	"github.com/AstroAir/github-cli/pkg/ghauth"
)

// Login-specific flags
var (
	loginForce  bool
	loginScopes string
	loginQR     bool
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with GitHub using the device flow",
	Long: `Authenticate with GitHub using the OAuth device authorization grant.

The command requests a one-time code, shows it together with the GitHub
verification page, and waits for the approval. How the instructions are
presented depends on the environment: a desktop gets its browser opened
automatically, SSH sessions and containers get manual instructions, and
headless environments get plain text.

Examples:
  gh-cli auth login                  # Login with the default scopes
  gh-cli auth login --scopes repo    # Request a reduced scope set
  gh-cli auth login --force          # Re-authenticate even with a valid token
  gh-cli auth login --qr             # Show a scannable QR code for the verification page`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginForce, "force", false,
		"Re-authenticate even if a valid token is already stored")
	authLoginCmd.Flags().StringVar(&loginScopes, "scopes", "",
		"Comma-separated scopes to request instead of the configured default")
	authLoginCmd.Flags().BoolVar(&loginQR, "qr", false,
		"Show a QR code of the verification page instead of the detected presentation")
}

// hostStore binds the token store to the configured host so the flow can
// persist without knowing about hosts.
type hostStore struct {
	store *tokenstore.Store
	host  string
}

func (h hostStore) Save(token *ghauth.Token, user *ghauth.UserInfo) error {
	return h.store.Save(h.host, token, user)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openTokenStore(cfg)
	if err != nil {
		return err
	}

	if !loginForce {
		if stored := store.Get(cfg.Host); stored != nil {
			fmt.Fprintf(cmd.OutOrStdout(),
				"Already logged in to %s as %s. Use --force to re-authenticate.\n",
				cfg.Host, stored.Login)
			return nil
		}
	}

	scopes := cfg.Scopes
	if loginScopes != "" {
		scopes = loginScopes
	}

	client := api.NewClient(
		api.WithDeviceCodeURL(cfg.DeviceCodeURL),
		api.WithTokenURL(cfg.TokenURL),
		api.WithAPIBaseURL(cfg.APIBaseURL),
	)
	detector := environment.NewDetector(environment.WithHealthURL(cfg.APIBaseURL))
	renderer := cli.NewConsoleRenderer(cmd.OutOrStdout(), authQuiet)
	defer renderer.Close()

	engine := retry.NewEngine(retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Exponential: cfg.Retry.Exponential,
		Jitter:      cfg.Retry.Jitter,
	}, retry.WithRetryObserver(renderer.ObserveRetry))

	flowOpts := []deviceflow.Option{
		deviceflow.WithDisplay(renderer),
		deviceflow.WithTokenStore(hostStore{store: store, host: cfg.Host}),
		deviceflow.WithRetryEngine(engine),
		deviceflow.WithStateObserver(renderer.ObserveTransition),
	}
	if loginQR {
		flowOpts = append(flowOpts, deviceflow.WithStrategy(deviceflow.StrategyQRCode))
	}
	flow := deviceflow.New(cfg.ClientID, scopes, client, detector, flowOpts...)

	// Ctrl-C cancels the flow instead of killing the process mid-write.
	ctx := cmd.Context()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			flow.Cancel()
		case <-ctx.Done():
		}
	}()

	result := flow.Run(ctx)
	if !result.Success {
		renderer.ShowFailure(result)
		return &cli.AuthFailedError{Host: cfg.Host, Reason: result.Err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", cfg.Host, result.Identity.Login)
	return nil
}
