package main

import (
	"github.com/spf13/cobra"

	"github.com/nerdenough/ai-storytime/internal/api"
	"github.com/nerdenough/ai-storytime/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "storytime",
	Short: "Illustrated children's book generator",
	Long: `Storytime turns a one-line story idea into an illustrated book.

A language model writes the story, then an image backend paints a picture
for every page and character. Books are stored as plain files:
  - json:     book.json plus images/ and characters/
  - markdown: prompt.txt and book.md plus images/`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.storytime/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "storytime home directory (default: ~/.storytime)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.AddCommand(versionCmd)
}
