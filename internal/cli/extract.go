package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/artifact"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract artifacts from a finalized response on stdin",
	Long: `Extract reads a finalized handler response from stdin and prints the
artifacts the pipeline would produce for it as JSON. Without --intent the
intent is classified from --prompt, or defaults to code.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("intent", "i", "", "intent category to extract for")
	extractCmd.Flags().StringP("prompt", "p", "", "prompt to classify when --intent is not set")
}

func runExtract(cmd *cobra.Command, args []string) error {
	category, err := categoryFlag(cmd)
	if err != nil {
		return err
	}

	text, err := readInput(cmd)
	if err != nil {
		return err
	}

	arts := artifact.Extract(text, category)
	if arts == nil {
		arts = []artifact.Artifact{}
	}
	return printJSON(cmd, arts)
}

func categoryFlag(cmd *cobra.Command) (intent.Category, error) {
	name, _ := cmd.Flags().GetString("intent")
	if name != "" {
		c, ok := intent.Parse(name)
		if !ok {
			return "", fmt.Errorf("unknown intent %q (valid: %v)", name, intent.All())
		}
		return c, nil
	}
	if prompt, _ := cmd.Flags().GetString("prompt"); prompt != "" {
		return intent.Classify(prompt), nil
	}
	return intent.Code, nil
}
