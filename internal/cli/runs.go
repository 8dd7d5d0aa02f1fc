package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/ledger"
)

var runsLimit int

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent tool runs from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := ledger.Open(ledgerPath())
		if err != nil {
			return err
		}
		defer led.Close()

		runs, err := led.Recent(runsLimit)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []ledger.Run{}
		}
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
