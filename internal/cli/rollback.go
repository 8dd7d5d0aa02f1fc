package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/tool"
)

var (
	rollbackPath    string
	rollbackDryRun  bool
	rollbackConfirm bool
)

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().StringVar(&rollbackPath, "path", "", "Config file to restore from its .bak snapshot (required)")
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "Preview the restoration diff without writing")
	rollbackCmd.Flags().BoolVar(&rollbackConfirm, "confirm", false, "Confirm the operation for policies that require it")
	rollbackCmd.MarkFlagRequired("path")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Restore a config file from its backup",
	Long: "Restores <path> byte-exact from <path>.bak through the write_config\n" +
		"tool, so the restoration is policy-checked and audited like any other\n" +
		"mutation. Exit code 0 iff ok.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		res := rt.dispatcher.Dispatch(cmd.Context(), tool.Request{
			Tool:      "write_config",
			RequestID: uuid.NewString(),
			DryRun:    rollbackDryRun,
			Confirm:   rollbackConfirm,
			Inputs: map[string]any{
				"path":     rollbackPath,
				"rollback": true,
			},
		})

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if !res.OK {
			return errSilentExit
		}
		return nil
	},
}
