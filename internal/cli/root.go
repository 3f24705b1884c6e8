// Package cli implements artifactctl, an offline companion to the API server
// for classifying prompts, decoding handler streams and replaying extraction
// and review normalization on saved output.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "artifactctl",
	Short: "Inspect the prompt-to-artifact pipeline offline",
	Long: `artifactctl runs the pipeline stages of the artifact orchestrator
locally: intent classification, stream decoding, artifact extraction and
review normalization. Input is read from stdin unless stated otherwise.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func readInput(cmd *cobra.Command) (string, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
