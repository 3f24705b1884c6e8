package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <prompt>",
	Short: "Print the intent and handler a prompt routes to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().Bool("json", false, "print JSON instead of text")
	classifyCmd.Flags().Bool("rules", false, "also print the rule that matched")
}

func runClassify(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	category := intent.Classify(prompt)
	handler := routing.Route(category)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printJSON(cmd, map[string]string{
			"intent":  string(category),
			"handler": string(handler),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "intent:  %s\nhandler: %s\n", category, handler)

	showRules, _ := cmd.Flags().GetBool("rules")
	if showRules {
		for _, r := range intent.Rules() {
			if r.Pattern.MatchString(prompt) {
				fmt.Fprintf(out, "rule:    %s %s\n", r.Category, r.Pattern)
				return nil
			}
		}
		fmt.Fprintln(out, "rule:    none (default)")
	}
	return nil
}
