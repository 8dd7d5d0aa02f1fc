package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/audit"
)

var auditVerifyLog string

func init() {
	rootCmd.AddCommand(auditVerifyCmd)
	auditVerifyCmd.Flags().StringVar(&auditVerifyLog, "log", "", "Log identity to verify, e.g. write_config (required)")
	auditVerifyCmd.MarkFlagRequired("log")
}

var auditVerifyCmd = &cobra.Command{
	Use:   "audit-verify",
	Short: "Verify an audit log's hash chain",
	Long: "Recomputes every record hash and checks the prev_hash linkage.\n" +
		"Prints the verification result as JSON. Exit code 0 iff the chain is intact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(auditDir(), audit.SanitizeLogID(auditVerifyLog)+".jsonl")
		result := audit.Verify(path)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if !result.Valid {
			return errSilentExit
		}
		return nil
	},
}
