package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/asin-match/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

const redacted = "[redacted]"

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

// writeConfig encodes a redacted copy of c as YAML.
func writeConfig(w io.Writer, c *config.Config) error {
	out := *c
	out.SPAPI.RefreshToken = redact(out.SPAPI.RefreshToken)
	out.SPAPI.ClientSecret = redact(out.SPAPI.ClientSecret)
	out.OpenAI.Key = redact(out.OpenAI.Key)
	out.Anthropic.Key = redact(out.Anthropic.Key)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
