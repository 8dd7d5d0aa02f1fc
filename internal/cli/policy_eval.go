package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/policy"
)

var (
	evalTool    string
	evalInputs  string
	evalConfirm bool
	evalDryRun  bool
)

func init() {
	rootCmd.AddCommand(policyEvalCmd)
	policyEvalCmd.Flags().StringVar(&evalTool, "tool", "", "Tool name to evaluate (required)")
	policyEvalCmd.Flags().StringVar(&evalInputs, "inputs", "", "Inputs as a JSON file path or inline JSON object")
	policyEvalCmd.Flags().BoolVar(&evalConfirm, "confirm", false, "Evaluate with the confirmation flag set")
	policyEvalCmd.Flags().BoolVar(&evalDryRun, "dry-run", false, "Evaluate in dry_run mode instead of apply")
	policyEvalCmd.MarkFlagRequired("tool")
}

var policyEvalCmd = &cobra.Command{
	Use:   "policy-eval",
	Short: "Evaluate the policy for a tool without executing it",
	Long: "Prints the {allow, reason} decision as JSON.\n" +
		"Exit code 0 regardless of the decision.",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := policy.Load(policyPath())
		if err != nil {
			return err
		}

		inputs, err := loadInputs(evalInputs)
		if err != nil {
			return err
		}

		mode := policy.ModeApply
		if evalDryRun {
			mode = policy.ModeDryRun
		}

		decision := policy.Evaluate(doc, evalTool, mode, evalConfirm, inputs, policy.SystemEnv())
		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
