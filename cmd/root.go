package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dispatch/internal/catalog"
	"github.com/zjrosen/dispatch/internal/config"
	"github.com/zjrosen/dispatch/internal/dispatch"
	"github.com/zjrosen/dispatch/internal/log"
	"github.com/zjrosen/dispatch/internal/pubsub"
	"github.com/zjrosen/dispatch/internal/tracing"
	"github.com/zjrosen/dispatch/internal/ui/playground"
	"github.com/zjrosen/dispatch/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "dispatch",
	Short:   "A multiple-dispatch callable registry with an interactive playground",
	Long:    `Register implementations under shared keys with typed argument constraints, then dispatch calls to the most specific match. Running without a subcommand opens the interactive playground.`,
	Version: version,
	RunE:    runPlayground,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/dispatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging to debug.log")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("ui.show_metadata", defaults.UI.ShowMetadata)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .dispatch/config.yaml (current directory)
		// 2. ~/.config/dispatch/config.yaml (user config)
		if _, err := os.Stat(".dispatch/config.yaml"); err == nil {
			viper.SetConfigFile(".dispatch/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "dispatch"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .dispatch/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".dispatch/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// initLogging enables debug logging when requested by flag or env var.
// The returned cleanup closes the log file.
func initLogging(component string) (func(), error) {
	debug := os.Getenv("DISPATCH_DEBUG") != "" || debugFlag
	if !debug {
		return func() {}, nil
	}

	logPath := os.Getenv("DISPATCH_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "dispatch starting", "component", component, "logPath", logPath)
	return cleanup, nil
}

// buildRegistry constructs the registry from config: tracing, cache, the
// built-in catalog, and any extra table files.
func buildRegistry() (*dispatch.Registry, *tracing.Provider, error) {
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tcfg := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	}
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}

	var opts []dispatch.Option
	if cfg.Cache.Enabled {
		opts = append(opts, dispatch.WithResolutionCache(cfg.Cache.TTLDuration()))
	}
	if provider.Enabled() {
		opts = append(opts, dispatch.WithTracer(provider.Tracer()))
	}

	reg := dispatch.New(opts...)
	if err := catalog.LoadBuiltin(reg); err != nil {
		return nil, nil, fmt.Errorf("loading built-in tables: %w", err)
	}
	for _, path := range cfg.Tables {
		if err := catalog.LoadFile(path, reg); err != nil {
			return nil, nil, fmt.Errorf("loading table file: %w", err)
		}
	}

	return reg, provider, nil
}

func runPlayground(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("playground")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := styles.ApplyTheme(styles.ThemeConfig{
		Mode:   cfg.Theme.Mode,
		Colors: cfg.Theme.FlattenedColors(),
	}); err != nil {
		return fmt.Errorf("applying theme: %w", err)
	}

	reg, provider, err := buildRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = provider.Shutdown(ctx) }()

	listener := pubsub.NewContinuousListener(ctx, reg.Events())
	model := playground.New(reg, listener, cfg.UI.ShowMetadata, cfg.UI.VimMode)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running playground: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
