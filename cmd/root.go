package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/AstroAir/github-cli/internal/cli"
	"github.com/AstroAir/github-cli/pkg/logging"
)

// Exit codes for CLI commands.
// These follow common conventions so scripts can branch on the outcome.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the authentication flow failed.
	ExitCodeAuthFailed = 3
)

// Global flags shared by all commands.
var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command for the gh-cli application.
var rootCmd = &cobra.Command{
	Use:   "gh-cli",
	Short: "GitHub from the terminal",
	Long: `gh-cli authenticates against GitHub using the OAuth device flow
and adapts to the environment it runs in: it opens a browser on a
desktop, prints manual instructions over SSH, and falls back to plain
text when fully headless.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logging.ParseLevel(logLevel), os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gh-cli version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default is $HOME/.config/github-cli/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
}
