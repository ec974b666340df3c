package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dispatch/internal/catalog"
	"github.com/zjrosen/dispatch/internal/config"
	"github.com/zjrosen/dispatch/internal/dispatch"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Manage the extra dispatch table files loaded at startup",
	Long:  `Manages the list of extra dispatch table YAML files the config names. Tables on the list load after the built-in catalog on every run.`,
}

var tablesAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add a table file to the config",
	Args:  cobra.ExactArgs(1),
	RunE:  runTablesAdd,
}

var tablesRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Remove a table file from the config",
	Args:  cobra.ExactArgs(1),
	RunE:  runTablesRemove,
}

func init() {
	tablesCmd.AddCommand(tablesAddCmd)
	tablesCmd.AddCommand(tablesRemoveCmd)
	rootCmd.AddCommand(tablesCmd)
}

// configFilePath returns the config file mutations persist to.
func configFilePath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return ".dispatch/config.yaml"
}

// addTable validates that the table file registers cleanly before persisting
// it, so a typo never lands in the config.
func addTable(configPath, path string, existing []string) error {
	if err := catalog.LoadFile(path, dispatch.New()); err != nil {
		return fmt.Errorf("validating table file: %w", err)
	}
	if err := config.AddTable(configPath, path, existing); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func removeTable(configPath, path string, existing []string) error {
	if err := config.RemoveTable(configPath, path, existing); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func runTablesAdd(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("tables")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := addTable(configFilePath(), args[0], cfg.Tables); err != nil {
		return err
	}
	cmd.Printf("added %s\n", args[0])
	return nil
}

func runTablesRemove(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("tables")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := removeTable(configFilePath(), args[0], cfg.Tables); err != nil {
		return err
	}
	cmd.Printf("removed %s\n", args[0])
	return nil
}
