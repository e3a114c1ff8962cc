package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/platform/tui"
)

var (
	playFlags     programFlags
	flagPlaySpeed string
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Watch a program run in the terminal",
	Long: `Open the terminal UI. With a file or --example, the program is shown
next to its world; without, a menu of the built-in examples opens.

Controls:
  Enter/R     - Run or continue
  Space/S     - Single step
  P           - Pause
  X           - Stop
  0/Ctrl+R    - Reset the world
  +/-         - Change speed
  Q/Ctrl+C    - Quit

Examples:
  karol play
  karol play --example burg --speed slow
  karol play treppe.kdp --world stufen.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playFlags.register(playCmd)
	playCmd.Flags().StringVar(&flagPlaySpeed, "speed", "", "Speed preset: instant, fast, normal, slow, step")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup("karol")
	if err != nil {
		return err
	}
	if flagPlaySpeed != "" {
		speed, err := config.ParseSpeed(flagPlaySpeed)
		if err != nil {
			return err
		}
		cfg.ApplySpeed(speed)
	}

	// The TUI owns stderr, keep the log quiet unless asked for.
	if !cmd.Flags().Changed("log-level") {
		logger.SetLevel(log.ErrorLevel)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	if len(args) == 0 && playFlags.example == "" {
		return tui.RunApp(cfg, store, logger, width, height)
	}

	p, err := playFlags.load(cfg, store, args)
	if err != nil {
		return err
	}
	return tui.RunPlay(tui.PlayOptions{
		Title:  p.name,
		Source: p.source,
		Karol:  p.karol,
		Config: cfg,
		Store:  store,
		Logger: logger,
		Width:  width,
		Height: height,
	})
}
