package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatch/internal/presentation"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all registered dispatch keys",
	Long:  `Lists every key that has ever had an entry registered, in sorted order, as JSON.`,
	RunE:  runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("keys")
	if err != nil {
		return err
	}
	defer cleanup()

	reg, provider, err := buildRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()
	defer func() { _ = provider.Shutdown(cmd.Context()) }()

	formatter := presentation.NewFormatter(os.Stdout)
	if err := formatter.FormatKeyNames(reg.Keys()); err != nil {
		return fmt.Errorf("formatting keys: %w", err)
	}
	return nil
}
