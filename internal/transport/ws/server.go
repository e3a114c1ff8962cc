// Package ws streams program runs to websocket clients. Each connection
// owns one world and one controller; clients load a program, send actions
// and receive a JSON event with the full world snapshot after every step.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-karol/internal/config"
	"github.com/vovakirdan/tui-karol/internal/core"
	"github.com/vovakirdan/tui-karol/internal/registry"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/session"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 10 * time.Minute
	outQueue     = 64
)

// Server upgrades HTTP requests to websocket sessions.
type Server struct {
	cfg   config.Config
	store *storage.Store
	log   *log.Logger

	upgrader websocket.Upgrader
}

// NewServer creates a server. store may be nil, in which case runs are not
// recorded.
func NewServer(cfg config.Config, store *storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		cfg:   cfg,
		store: store,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the websocket endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{
			srv: s,
			out: make(chan []byte, outQueue),
			ctx: ctx,
			log: s.log.With("remote", r.RemoteAddr),
		}
		c.log.Info("client connected")
		defer c.log.Info("client disconnected")
		defer c.close()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		c.send(ServerMsg{Type: TypeHello, Examples: exampleIDs()})

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			var in ClientMsg
			if err := json.Unmarshal(msg, &in); err != nil {
				c.sendError(fmt.Errorf("ws: bad message: %w", err))
				continue
			}
			if err := c.handle(in); err != nil {
				c.sendError(err)
			}
		}
	}
}

// ListenAndServe serves the websocket endpoint at /ws on addr until ctx
// is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting websocket server", "address", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down websocket server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func exampleIDs() []string {
	infos := registry.List()
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids
}

// client is the state of one connection.
type client struct {
	srv *Server
	out chan []byte
	ctx context.Context
	log *log.Logger

	mu      sync.Mutex
	runner  *session.Runner
	program string
	source  string
	started time.Time
	speed   config.SpeedPreset
}

func (c *client) send(m ServerMsg) {
	b, err := json.Marshal(m)
	if err != nil {
		c.log.Error("cannot encode message", "type", m.Type, "error", err)
		return
	}
	select {
	case c.out <- b:
	case <-c.ctx.Done():
	}
}

func (c *client) sendError(err error) {
	c.send(ServerMsg{Type: TypeError, Error: err.Error()})
}

func (c *client) handle(in ClientMsg) error {
	switch in.Type {
	case TypeLoad:
		return c.load(in)
	case TypeAction:
		a, ok := core.ParseAction(in.Action)
		if !ok {
			return fmt.Errorf("ws: unknown action %q", in.Action)
		}
		return c.act(a)
	case TypeSpeed:
		p, err := config.ParseSpeed(in.Speed)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.speed = p
		r := c.runner
		c.mu.Unlock()
		if r != nil {
			r.SetPacing(config.RunConfig{Speed: p}.Pacing())
		}
		return nil
	}
	return fmt.Errorf("ws: unknown message type %q", in.Type)
}

// load replaces the session's world and program.
func (c *client) load(in ClientMsg) error {
	cfg := c.srv.cfg
	var (
		k       *robot.Karol
		err     error
		program = in.Name
		source  = in.Source
	)

	if in.Example != "" {
		ex, exErr := registry.Create(in.Example)
		if exErr != nil {
			return exErr
		}
		if k, err = ex.Setup(cfg.RobotSettings()); err != nil {
			return err
		}
		program, source = ex.ID, ex.Source
	} else {
		w, wErr := cfg.NewWorld()
		if wErr != nil {
			return wErr
		}
		if k, err = robot.New(w, cfg.RobotSettings()); err != nil {
			return err
		}
		if len(in.World) > 0 {
			snap, snapErr := snapshot.Unmarshal(in.World)
			if snapErr != nil {
				return snapErr
			}
			if err := snap.Apply(k); err != nil {
				return err
			}
		}
	}
	if program == "" {
		program = "ws"
	}

	c.close()

	ctrl := session.New(k,
		session.WithLogger(c.log),
		session.WithEngineOptions(cfg.EngineOptions()...),
	)
	runner := session.NewRunner(ctrl, c.observe)

	c.mu.Lock()
	pacing := cfg.Run.Pacing()
	if c.speed != "" {
		pacing = config.RunConfig{Speed: c.speed}.Pacing()
	}
	runner.SetPacing(pacing)
	c.runner, c.program, c.source = runner, program, source
	c.mu.Unlock()

	snap := snapshot.Capture(k)
	c.send(ServerMsg{Type: TypeLoaded, Program: program, State: session.Idle.String(), Snapshot: &snap})
	return nil
}

func (c *client) act(a core.Action) error {
	c.mu.Lock()
	r, src := c.runner, c.source
	c.mu.Unlock()
	if r == nil {
		return errors.New("ws: no program loaded")
	}
	ctrl := r.Controller()

	// the run may finish on the runner goroutine before Play returns, so
	// the clock starts before a fresh run is launched
	if (a == core.ActionRun || a == core.ActionStep) && !c.busy(ctrl) {
		c.begin()
	}

	var err error
	switch a {
	case core.ActionRun:
		_, err = r.Play(src)
	case core.ActionStep:
		_, err = r.StepSource(src)
	case core.ActionPause:
		err = r.Pause()
	case core.ActionStop:
		wasActive := c.busy(ctrl)
		if err = r.Stop(); err == nil && wasActive {
			c.record(ctrl, storage.OutcomeStopped, nil)
		}
	case core.ActionReset:
		if c.busy(ctrl) {
			c.record(ctrl, storage.OutcomeStopped, nil)
		}
		if err = r.Reset(); err == nil {
			snap := snapshot.Capture(ctrl.Karol())
			c.send(ServerMsg{Type: TypeLoaded, Program: c.program, State: ctrl.State().String(), Snapshot: &snap})
			return nil
		}
	default:
		return fmt.Errorf("ws: action %s is not supported", a)
	}
	if err != nil {
		return err
	}
	c.send(ServerMsg{Type: TypeState, State: ctrl.State().String(), Step: ctrl.Steps()})
	return nil
}

func (c *client) busy(ctrl *session.Controller) bool {
	st := ctrl.State()
	return st == session.Running || st == session.Paused
}

func (c *client) begin() {
	c.mu.Lock()
	c.started = time.Now()
	c.mu.Unlock()
}

// observe runs on the goroutine that steps the program, so reading the
// world here does not race with the engine.
func (c *client) observe(ev session.Event) {
	c.mu.Lock()
	r := c.runner
	c.mu.Unlock()
	if r == nil {
		return
	}
	ctrl := r.Controller()

	switch {
	case ev.Err != nil:
		c.record(ctrl, storage.OutcomeError, ev.Err)
		c.send(ServerMsg{Type: TypeDone, State: ev.State.String(), Step: ctrl.Steps(), Error: ev.Err.Error()})
	case ev.Result.Done:
		c.record(ctrl, storage.OutcomeFinished, nil)
		snap := snapshot.Capture(ctrl.Karol())
		c.send(ServerMsg{Type: TypeDone, State: ev.State.String(), Step: ctrl.Steps(), Snapshot: &snap})
	default:
		snap := snapshot.Capture(ctrl.Karol())
		c.send(ServerMsg{
			Type:     TypeStep,
			State:    ev.State.String(),
			Step:     ctrl.Steps(),
			Range:    ev.Result.Range,
			DelayMS:  ev.Result.Delay.Milliseconds(),
			Tone:     ev.Result.Tone,
			Snapshot: &snap,
		})
	}
}

func (c *client) record(ctrl *session.Controller, outcome storage.Outcome, runErr error) {
	store := c.srv.store
	if store == nil {
		return
	}
	c.mu.Lock()
	rec := storage.RunRecord{
		Program:  c.program,
		Outcome:  outcome,
		Steps:    ctrl.Steps(),
		Duration: time.Since(c.started),
	}
	c.mu.Unlock()
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if _, err := store.SaveRun(rec); err != nil {
		c.log.Warn("could not save run", "program", rec.Program, "error", err)
	}
}

func (c *client) stopRunner(r *session.Runner) {
	r.Close()
	//nolint:errcheck // nothing to stop is fine
	r.Stop()
}

func (c *client) close() {
	c.mu.Lock()
	r := c.runner
	c.runner = nil
	c.mu.Unlock()
	if r != nil {
		c.stopRunner(r)
	}
}
