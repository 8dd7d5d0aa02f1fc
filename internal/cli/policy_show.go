package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/policy"
)

func init() {
	rootCmd.AddCommand(policyShowCmd)
}

var policyShowCmd = &cobra.Command{
	Use:   "policy-show",
	Short: "Print the loaded policy document as JSON",
	Long: "Loads the policy file (built-in defaults when it does not exist)\n" +
		"and prints the resulting document as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := policy.Load(policyPath())
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
