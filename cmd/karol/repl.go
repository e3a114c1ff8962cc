package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/platform/tui"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/session"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/syntax"
)

const (
	replHistoryFile = ".karol_history"
	promptMain      = "karol> "
	promptCont      = "  ... "
)

var (
	replFlags     programFlags
	flagReplQuiet bool
)

const replHelp = `Statements run as soon as they are complete. Definitions
(Anweisung, Bedingung) are kept and can be called later.

REPL commands:
  :world          Print the world
  :reset          Restore the starting world
  :save <file>    Write the world to a snapshot file
  :load <file>    Load a snapshot file
  :defs           List the kept definitions
  :speed <preset> Pacing for the following statements
  :help           Show this help
  :quit           Exit the REPL`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Execute statements one at a time",
	Long: `Start an interactive session. Every statement you type runs at once
against the same world.

` + replHelp,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	replFlags.register(replCmd)
	replCmd.Flags().BoolVar(&flagReplQuiet, "quiet", false, "Do not print the world after each statement")
}

// replSession executes inputs against one controller, keeping the
// definitions made so far.
type replSession struct {
	ctrl   *session.Controller
	out    io.Writer
	pacing session.Pacing
	quiet  bool

	names []string          // definition names in first-seen order
	defs  map[string]string // canonical name -> source
}

func newReplSession(k *robot.Karol, cfg config.Config, logger *log.Logger, out io.Writer) *replSession {
	return &replSession{
		ctrl: session.New(k,
			session.WithLogger(logger),
			session.WithEngineOptions(cfg.EngineOptions()...),
		),
		out:  out,
		defs: make(map[string]string),
	}
}

// exec parses src on its own, so reported positions match what the user
// typed, then runs it behind the kept definitions.
func (r *replSession) exec(ctx context.Context, src string) error {
	tree, err := syntax.Parse(src)
	if err != nil {
		return err
	}

	fresh := make(map[string]string)
	var order []string
	for _, n := range tree.Children {
		if n.Kind != syntax.KindDefinition {
			continue
		}
		start, end := n.Range.Offsets(src)
		name := syntax.Canonical(n.Name)
		fresh[name] = src[start:end]
		order = append(order, name)
	}

	var full strings.Builder
	for _, name := range r.names {
		if _, redefined := fresh[name]; !redefined {
			full.WriteString(r.defs[name])
			full.WriteByte('\n')
		}
	}
	full.WriteString(src)

	if err := r.ctrl.StartSource(full.String()); err != nil {
		return err
	}
	for _, name := range order {
		if _, known := r.defs[name]; !known {
			r.names = append(r.names, name)
		}
		r.defs[name] = fresh[name]
	}

	runErr := r.ctrl.Run(ctx, r.pacing, func(ev session.Event) {
		if ev.Result.Tone {
			fmt.Fprint(r.out, "\a")
		}
	})
	if errors.Is(runErr, context.Canceled) {
		// the interrupted run cannot be resumed from the prompt
		//nolint:errcheck // already stopped is fine
		r.ctrl.Stop()
		fmt.Fprintln(r.out, "interrupted")
		return nil
	}
	if runErr != nil {
		return runErr
	}
	if !r.quiet {
		r.printWorld()
	}
	return nil
}

func (r *replSession) printWorld() {
	k := r.ctrl.Karol()
	fmt.Fprintln(r.out, tui.RenderWorld(k))
	fmt.Fprintf(r.out, "Karol at %v facing %v, %d steps\n", k.Position(), k.Direction(), r.ctrl.Steps())
}

// command runs a :command. It returns false when the REPL should exit.
func (r *replSession) command(line string) (bool, error) {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return true, nil
	}
	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf(":%s needs one argument", fields[0])
		}
		return fields[1], nil
	}

	switch fields[0] {
	case "quit", "q", "exit":
		return false, nil
	case "help", "h":
		fmt.Fprintln(r.out, replHelp)
	case "world", "w":
		r.printWorld()
	case "reset":
		if err := r.ctrl.Reset(); err != nil {
			return true, err
		}
		r.printWorld()
	case "save":
		path, err := arg()
		if err != nil {
			return true, err
		}
		snap, err := r.ctrl.Snapshot()
		if err != nil {
			return true, err
		}
		if err := snapshot.Save(path, snap); err != nil {
			return true, err
		}
		fmt.Fprintf(r.out, "Saved %s\n", path)
	case "load":
		path, err := arg()
		if err != nil {
			return true, err
		}
		snap, err := snapshot.Load(path)
		if err != nil {
			return true, err
		}
		if err := r.ctrl.Restore(snap); err != nil {
			return true, err
		}
		r.printWorld()
	case "defs":
		if len(r.names) == 0 {
			fmt.Fprintln(r.out, "No definitions yet.")
		}
		for _, name := range r.names {
			fmt.Fprintln(r.out, r.defs[name])
		}
	case "speed":
		name, err := arg()
		if err != nil {
			return true, err
		}
		speed, err := config.ParseSpeed(name)
		if err != nil {
			return true, err
		}
		if speed.Manual() {
			return true, errors.New("speed step is not available in the REPL")
		}
		r.pacing = config.RunConfig{Speed: speed}.Pacing()
	default:
		return true, fmt.Errorf("unknown command :%s (try :help)", fields[0])
	}
	return true, nil
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup("karol")
	if err != nil {
		return err
	}
	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}
	p, err := replFlags.robot(cfg, store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r := newReplSession(p.karol, cfg, logger, out)
	r.quiet = flagReplQuiet

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, ".karol", replHistoryFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err != nil {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintln(out, "Karol REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.")
	if !r.quiet {
		r.printWorld()
	}

	for {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(src)

		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			more, err := r.command(strings.TrimSpace(src))
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			if !more {
				return nil
			}
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err := r.exec(ctx, src)
		stop()
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

// readStatement reads lines until they parse or fail for a reason other
// than missing input. ok is false at end of input.
func readStatement(ln *liner.State) (src string, ok bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src = b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}

		_, perr := syntax.Parse(src)
		var se *syntax.Error
		if perr != nil && errors.As(perr, &se) && se.Incomplete(src) {
			continue
		}
		return src, true
	}
}
