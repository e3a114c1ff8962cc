// karol runs programs for Karol the robot: headless, in the terminal, over
// SSH or as a websocket step stream.
//
// Usage:
//
//	karol run <file>          - Run a program headless and print the result
//	karol check <file>        - Parse a program and print its tree
//	karol play [file]         - Run a program in the terminal UI
//	karol repl                - Execute statements one at a time
//	karol examples            - List the built-in examples
//	karol world new|show      - Create or show world files
//	karol worlds              - Manage the saved world library
//	karol history [program]   - Show recorded runs
//	karol serve               - Serve the TUI over SSH and/or a websocket
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.karol/config.yaml)
//	--db <path>         - Database path (default: ~/.karol/karol.db)
//	--log-level <level> - debug, info, warn or error (default: warn)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "karol",
	Short: "Karol - program a robot in your terminal",
	Long: `Karol is a robot that walks a grid world, stacks bricks and sets
markers. You write the program, karol runs it step by step.

Available commands:
  run       - Run a program headless
  check     - Parse a program and print its tree
  play      - Watch a program run in the terminal
  repl      - Execute statements one at a time
  examples  - List the built-in examples
  world     - Create or show world files
  worlds    - Manage the saved world library
  history   - Show recorded runs
  serve     - Serve karol over SSH or websocket

Examples:
  karol run burg.kdp --world burg.json
  karol play --example burg
  karol serve --ssh :23234 --ws :8090`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the world and history database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(examplesCmd)
	rootCmd.AddCommand(worldCmd)
	rootCmd.AddCommand(worldsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger returns the stderr logger at the --log-level level.
func newLogger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}), nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	return cfg, nil
}

// openStore opens the database. Commands that only record history keep
// working without it, so failures are logged and nil is returned.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.DBPath())
	if err != nil {
		logger.Warn("could not open database, history is disabled", "path", cfg.DBPath(), "error", err)
		return nil
	}
	return store
}

// setup loads the config and creates a logger.
func setup(prefix string) (config.Config, *log.Logger, error) {
	logger, err := newLogger(prefix)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
