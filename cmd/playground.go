package cmd

import (
	"github.com/spf13/cobra"
)

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Open the interactive registry playground",
	Long:  `Opens the interactive TUI for browsing dispatch keys, their registered signatures, and entry metadata. The view updates live as entries are registered and unregistered. This is the same view the bare dispatch command opens.`,
	RunE:  runPlayground,
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}
