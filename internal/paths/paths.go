// Package paths resolves the on-disk layout: a config directory holding
// the policy file and run ledger, and a log directory holding audit
// chains. Both are overridable through environment variables.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigDir overrides the config directory.
	EnvConfigDir = "HALBERT_CONFIG_DIR"
	// EnvLogDir overrides the log directory.
	EnvLogDir = "HALBERT_LOG_DIR"
)

// ConfigDir returns the directory holding the policy file and ledger,
// honoring HALBERT_CONFIG_DIR. Defaults to ~/.halbert.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".halbert"
	}
	return filepath.Join(home, ".halbert")
}

// LogDir returns the directory holding audit logs, honoring
// HALBERT_LOG_DIR. Defaults to <config dir>/logs.
func LogDir() string {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		return dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// PolicyPath is the default policy document location.
func PolicyPath() string {
	return filepath.Join(ConfigDir(), "policy.yaml")
}

// AuditDir is where per-tool audit chains live.
func AuditDir() string {
	return filepath.Join(LogDir(), "audit")
}

// LedgerPath is the run ledger database location.
func LedgerPath() string {
	return filepath.Join(ConfigDir(), "runs.db")
}
