package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/stream"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/tokens"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a server-sent event stream on stdin into text",
	Long: `Decode reads a raw handler stream (data: lines) from stdin and prints the
accumulated text. With --deltas each fragment is printed on its own line.`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().Bool("deltas", false, "print each delta on its own line")
	decodeCmd.Flags().Bool("stats", false, "print delta and token counts to stderr")
}

func runDecode(cmd *cobra.Command, args []string) error {
	showDeltas, _ := cmd.Flags().GetBool("deltas")
	out := cmd.OutOrStdout()

	count := 0
	text, err := stream.Collect(cmd.Context(), cmd.InOrStdin(), func(d string) {
		count++
		if showDeltas {
			fmt.Fprintf(out, "%q\n", d)
		}
	})
	if err != nil {
		return fmt.Errorf("decoding stream: %w", err)
	}

	if !showDeltas {
		fmt.Fprint(out, text)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		fmt.Fprintf(cmd.ErrOrStderr(), "deltas: %d, tokens (estimated): %d\n", count, tokens.Estimate(text))
	}
	return nil
}
