// cmd/call.go
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var callTimeout int

var callCmd = &cobra.Command{
	Use:   "call <method> [params-json]",
	Short: "Invoke a gateway method directly",
	Long: `Sends a single call to the gateway over the configured transport and
prints the JSON result. Params must be a JSON object; they default to {}.

Useful for debugging gateway methods that gatewatch does not wrap.`,
	Example: `  gatewatch call ping
  gatewatch call sessions.list '{"limit":5,"messageLimit":0}'
  gatewatch call cron.list '{"includeDisabled":true}' --transport ws`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

// parseCallParams validates optional JSON params; they must be an object.
func parseCallParams(args []string) (json.RawMessage, error) {
	if len(args) < 2 || args[1] == "" {
		return json.RawMessage(`{}`), nil
	}
	raw := json.RawMessage(args[1])
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("params must be a JSON object: %s", args[1])
	}
	return raw, nil
}

func runCall(cmd *cobra.Command, args []string) error {
	method := args[0]
	params, err := parseCallParams(args)
	if err != nil {
		return err
	}

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	var result json.RawMessage
	start := time.Now()
	err = ui.RunWithSpinner("Calling "+method, func() error {
		if callTimeout > 0 {
			result, err = client.CallWithTimeout(cmd.Context(), method, params, time.Duration(callTimeout)*time.Millisecond)
		} else {
			result, err = client.Call(cmd.Context(), method, params)
		}
		return err
	})
	duration := time.Since(start)

	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			fmt.Fprintf(os.Stderr, "%s %s\n", labelColor.Sprint("Kind:"), gwErr.Kind)
			if gwErr.Code != "" {
				fmt.Fprintf(os.Stderr, "%s %s\n", labelColor.Sprint("Code:"), gwErr.Code)
			}
			if gwErr.HTTPStatus != 0 {
				fmt.Fprintf(os.Stderr, "%s %d\n", labelColor.Sprint("HTTP:"), gwErr.HTTPStatus)
			}
		}
		return err
	}

	Debug("%s completed in %s via %s", method, duration, client.Mode())
	return printJSON(result)
}

// printJSON writes raw indented to stdout; null prints as null.
func printJSON(raw json.RawMessage) error {
	if len(raw) == 0 {
		fmt.Println("null")
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(os.Stdout)
	return err
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().IntVar(&callTimeout, "timeout", 0, "Call timeout in milliseconds (default: configured timeout)")
}
