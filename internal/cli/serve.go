package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/mcp"
	"github.com/EricBintner/Halbert-sub002/internal/policy"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over MCP stdio",
	Long: "Runs the MCP server on stdio so an agent orchestrator can call\n" +
		"halbert_write_config, halbert_schedule_cron, halbert_rollback, and\n" +
		"halbert_check as typed tools. The policy file is revalidated on change.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	// Surface a broken policy at startup rather than on the first call.
	if _, err := policy.Load(policyPath()); err != nil {
		return fmt.Errorf("policy check failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchPolicy(ctx, policyPath())

	fmt.Fprintln(os.Stderr, "halbert MCP server on stdio")
	return mcp.New(rt.dispatcher, nil).Run(ctx)
}

// watchPolicy revalidates the policy file whenever it changes, so parse
// errors show up in the server log immediately instead of failing the
// next request. The dispatcher itself always loads the file fresh per
// request.
func watchPolicy(ctx context.Context, path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: policy watch disabled: %v\n", err)
		return
	}
	defer watcher.Close()

	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := watcher.Add(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: policy watch disabled: %v\n", err)
		return
	}

	// Debounce: wait 500ms after the last write before revalidating.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if _, err := policy.Load(path); err != nil {
						fmt.Fprintf(os.Stderr, "policy reload check failed: %v\n", err)
					} else {
						fmt.Fprintln(os.Stderr, "policy file changed and parses cleanly")
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "policy watcher error: %v\n", err)
		}
	}
}
