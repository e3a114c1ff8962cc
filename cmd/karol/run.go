package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/platform/tui"
	"github.com/vovakirdan/tui-karol/internal/session"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

var (
	runFlags     programFlags
	flagRunSpeed string
	flagSaveTo   string
	flagShow     bool
	flagTrace    bool
	flagNoRecord bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a program headless",
	Long: `Run a program to completion without the terminal UI and print where
Karol ended up. Runtime errors are reported with their source position
and make the command exit non-zero.

Examples:
  karol run burg.kdp
  karol run --example burg --show
  karol run sammeln.kdp --world acker.json.zst --save result.json
  karol run burg.kdp --speed slow --trace`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&flagRunSpeed, "speed", string(config.SpeedInstant), "Speed preset: instant, fast, normal, slow")
	runCmd.Flags().StringVar(&flagSaveTo, "save", "", "Write the final world to this snapshot file")
	runCmd.Flags().BoolVar(&flagShow, "show", false, "Print the final world")
	runCmd.Flags().BoolVar(&flagTrace, "trace", false, "Print every step")
	runCmd.Flags().BoolVar(&flagNoRecord, "no-history", false, "Do not record the run")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup("karol")
	if err != nil {
		return err
	}
	speed, err := config.ParseSpeed(flagRunSpeed)
	if err != nil {
		return err
	}
	if speed.Manual() {
		return errors.New("speed step needs 'karol play'")
	}

	var store *storage.Store
	if !flagNoRecord || runFlags.saved != "" {
		if store = openStore(cfg, logger); store != nil {
			defer store.Close()
		}
	}

	p, err := runFlags.load(cfg, store, args)
	if err != nil {
		return err
	}

	ctrl := session.New(p.karol,
		session.WithLogger(logger),
		session.WithEngineOptions(cfg.EngineOptions()...),
	)
	if err := ctrl.StartSource(p.source); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	observe := func(ev session.Event) {
		if ev.Result.Tone {
			fmt.Fprint(os.Stderr, "\a")
		}
		if flagTrace && ev.Result.Range != nil {
			k := ctrl.Karol()
			fmt.Fprintf(out, "%4d  %-12s %v %v\n", ctrl.Steps(), ev.Result.Range, k.Position(), k.Direction())
		}
	}

	start := time.Now()
	runErr := ctrl.Run(ctx, config.RunConfig{Speed: speed}.Pacing(), observe)
	elapsed := time.Since(start)

	rec := storage.RunRecord{Program: p.name, Steps: ctrl.Steps(), Duration: elapsed}
	switch {
	case runErr == nil:
		rec.Outcome = storage.OutcomeFinished
	case errors.Is(runErr, context.Canceled):
		rec.Outcome = storage.OutcomeStopped
	default:
		rec.Outcome = storage.OutcomeError
		rec.Error = runErr.Error()
	}
	if store != nil && !flagNoRecord {
		if _, err := store.SaveRun(rec); err != nil {
			logger.Warn("could not save run", "program", rec.Program, "error", err)
		}
	}

	k := ctrl.Karol()
	if flagShow {
		fmt.Fprintln(out, tui.RenderWorld(k))
	}
	switch rec.Outcome {
	case storage.OutcomeFinished:
		fmt.Fprintf(out, "%s finished after %d steps in %s\n", p.name, rec.Steps, elapsed.Round(time.Millisecond))
	case storage.OutcomeStopped:
		fmt.Fprintf(out, "%s interrupted after %d steps\n", p.name, rec.Steps)
	}
	fmt.Fprintf(out, "Karol at %v facing %v\n", k.Position(), k.Direction())

	if flagSaveTo != "" && rec.Outcome != storage.OutcomeStopped {
		if err := snapshot.Save(flagSaveTo, snapshot.Capture(k)); err != nil {
			return err
		}
	}
	if rec.Outcome == storage.OutcomeError {
		return runErr
	}
	return nil
}
