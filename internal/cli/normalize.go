package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/review"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize a reviewer reply on stdin into a review result",
	RunE:  runNormalize,
}

func init() {
	normalizeCmd.Flags().StringP("diff", "d", "", "path to the unified diff that was reviewed")
	normalizeCmd.Flags().String("mode", "", "review mode to record when the reply has none")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd)
	if err != nil {
		return err
	}

	res, err := review.Normalize(raw)
	if err != nil {
		var pe *review.ParseError
		if errors.As(err, &pe) {
			return fmt.Errorf("no review JSON found in %d bytes of input: %w", len(pe.Raw), err)
		}
		return err
	}

	if mode, _ := cmd.Flags().GetString("mode"); mode != "" && res.ReviewMode == review.DefaultReviewMode {
		res.ReviewMode = mode
	}

	if path, _ := cmd.Flags().GetString("diff"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading diff: %w", err)
		}
		review.WithDiff(res, string(data))
	}

	return printJSON(cmd, res)
}
