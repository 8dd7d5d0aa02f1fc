// Package cli implements the halbert command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/audit"
	"github.com/EricBintner/Halbert-sub002/internal/ledger"
	"github.com/EricBintner/Halbert-sub002/internal/logging"
	"github.com/EricBintner/Halbert-sub002/internal/paths"
	"github.com/EricBintner/Halbert-sub002/internal/tool"
)

var (
	flagPolicy   string
	flagAuditDir string
	flagLedger   string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "halbert",
	Short: "Policy-gated system mutations for the Halbert agent",
	Long: "Executes privileged system changes (config file edits, crontab entries) safely:\n" +
		"every mutation is policy-checked, previewable as a diff, backed up before\n" +
		"overwrite, and recorded in a hash-chained audit log.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errSilentExit signals a non-zero exit for a command that already
// printed its JSON result. Returned instead of calling os.Exit inside
// RunE so deferred cleanup (ledger, audit store, log file) still runs.
var errSilentExit = errors.New("silent exit")

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Path to policy YAML (default: <config dir>/policy.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagAuditDir, "audit-dir", "", "Directory for audit logs (default: <log dir>/audit)")
	rootCmd.PersistentFlags().StringVar(&flagLedger, "ledger", "", "Path to the run ledger database (default: <config dir>/runs.db)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Also write JSON logs to this file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilentExit) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func policyPath() string {
	if flagPolicy != "" {
		return flagPolicy
	}
	return paths.PolicyPath()
}

func auditDir() string {
	if flagAuditDir != "" {
		return flagAuditDir
	}
	return paths.AuditDir()
}

func ledgerPath() string {
	if flagLedger != "" {
		return flagLedger
	}
	return paths.LedgerPath()
}

// runtime bundles the dispatcher with its collaborators for one command
// invocation.
type runtime struct {
	dispatcher *tool.Dispatcher
	audit      *audit.Store
	ledger     *ledger.Ledger
	closeLog   func() error
}

func newRuntime() (*runtime, error) {
	logger, closeLog, err := logging.New(logging.Config{
		Level:    flagLogLevel,
		FilePath: flagLogFile,
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(auditDir(), 0700); err != nil {
		closeLog()
		return nil, err
	}
	store := audit.NewStore(auditDir())

	if err := os.MkdirAll(filepath.Dir(ledgerPath()), 0700); err != nil {
		closeLog()
		return nil, err
	}
	led, err := ledger.Open(ledgerPath())
	if err != nil {
		store.Close()
		closeLog()
		return nil, err
	}

	return &runtime{
		dispatcher: tool.NewDispatcher(tool.Config{
			PolicyPath: policyPath(),
			Audit:      store,
			Ledger:     led,
			Logger:     logger,
		}),
		audit:    store,
		ledger:   led,
		closeLog: closeLog,
	}, nil
}

func (r *runtime) Close() {
	r.ledger.Close()
	r.audit.Close()
	r.closeLog()
}
