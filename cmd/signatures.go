package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatch/internal/presentation"
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures <key>",
	Short: "Show the registered entries for a key",
	Long:  `Shows every live entry registered under the given key, in registration order, with its signature, sequence number, and metadata.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSignatures,
}

func init() {
	rootCmd.AddCommand(signaturesCmd)
}

func runSignatures(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("signatures")
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

	dto, err := presentation.FromKey(reg, args[0])
	if err != nil {
		return fmt.Errorf("describing key %q: %w", args[0], err)
	}

	formatter := presentation.NewFormatter(os.Stdout)
	if err := formatter.FormatKey(dto); err != nil {
		return fmt.Errorf("formatting entries: %w", err)
	}
	return nil
}
