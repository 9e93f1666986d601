// Package logging provides structured logging for gh-cli with unified log
// handling and level filtering.
//
// The package is built on Go's standard slog package and adds printf-style
// helpers that tag every entry with a subsystem identifier.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// # Usage
//
//	import "github.com/AstroAir/github-cli/pkg/logging"
//
//	// Initialize with warn level logging to stderr
//	logging.InitForCLI(logging.LevelWarn, os.Stderr)
//
//	// Log messages
//	logging.Info("DeviceFlow", "starting device flow run %s", runID)
//	logging.Debug("Config", "loaded configuration from %s", configPath)
//	logging.Warn("Environment", "browser launch failed")
//	logging.Error("API", err, "token endpoint unreachable")
//
// # Subsystem Organization
//
// Logs are tagged by subsystem so they can be filtered:
//
//   - **Config**: Configuration loading and validation
//   - **Environment**: Capability detection and probes
//   - **API**: GitHub endpoint transport
//   - **DeviceFlow**: Device flow orchestration
//   - **TokenStore**: Credential persistence
//
// SECURITY: credentials never pass through this package. Callers log hosts,
// logins, and run identifiers, never token or device code values.
//
// # Thread Safety
//
// The package is safe for concurrent use from multiple goroutines.
package logging
