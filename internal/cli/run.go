package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/EricBintner/Halbert-sub002/internal/tool"
)

var (
	runRequestFile string
	runTool        string
	runInputs      string
	runDryRun      bool
	runConfirm     bool
	runRequestID   string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runRequestFile, "request", "", "Read the full request JSON from this file ('-' for stdin)")
	runCmd.Flags().StringVar(&runTool, "tool", "", "Tool name (alternative to --request)")
	runCmd.Flags().StringVar(&runInputs, "inputs", "", "Inputs as a JSON file path or inline JSON object")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Preview without mutating")
	runCmd.Flags().BoolVar(&runConfirm, "confirm", false, "Confirm the operation for policies that require it")
	runCmd.Flags().StringVar(&runRequestID, "request-id", "", "Unique request id (generated when omitted)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a tool request through the dispatcher",
	Long: "Runs one tool request: policy check, execution, audit append.\n" +
		"Prints the result as JSON. Exit code 0 iff ok.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	req, err := buildRequest()
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res := rt.dispatcher.Dispatch(cmd.Context(), req)
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !res.OK {
		return errSilentExit
	}
	return nil
}

func buildRequest() (tool.Request, error) {
	var req tool.Request

	if runRequestFile != "" {
		data, err := readFileOrStdin(runRequestFile)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("parse request: %w", err)
		}
	} else {
		if runTool == "" {
			return req, fmt.Errorf("either --request or --tool is required")
		}
		inputs, err := loadInputs(runInputs)
		if err != nil {
			return req, err
		}
		req = tool.Request{
			Tool:    runTool,
			DryRun:  runDryRun,
			Confirm: runConfirm,
			Inputs:  inputs,
		}
	}

	if runRequestID != "" {
		req.RequestID = runRequestID
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req, nil
}

func readFileOrStdin(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// loadInputs accepts either a path to a JSON file or an inline JSON
// object (detected by a leading '{').
func loadInputs(spec string) (map[string]any, error) {
	if spec == "" {
		return map[string]any{}, nil
	}

	data := []byte(spec)
	if !strings.HasPrefix(strings.TrimSpace(spec), "{") {
		var err error
		data, err = os.ReadFile(spec)
		if err != nil {
			return nil, fmt.Errorf("read inputs: %w", err)
		}
	}

	var inputs map[string]any
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse inputs: %w", err)
	}
	return inputs, nil
}
