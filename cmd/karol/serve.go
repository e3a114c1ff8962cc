package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-karol/internal/platform/tui"
	"github.com/vovakirdan/tui-karol/internal/transport/ws"
)

var (
	flagSSHAddr     string
	flagWSAddr      string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve karol over SSH and websocket",
	Long: `Start the SSH server, the websocket step stream, or both.

Each SSH connection gets its own menu, worlds and programs. Each websocket
connection owns one world; clients load a program, send actions and
receive the world after every step. All sessions share the run history.

Host key handling:
  - If --host-key is absolute, uses that key file
  - Otherwise the key lives under ~/.karol and is generated on first start

Examples:
  karol serve                          # SSH on the configured address
  karol serve --ssh :2222              # SSH on port 2222
  karol serve --ws :8090               # websocket only, endpoint /ws
  karol serve --ssh :2222 --ws :8090   # both

Users can connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "Websocket server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup("karol-serve")
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		logger.SetLevel(log.InfoLevel)
	}

	sshAddr, wsAddr := flagSSHAddr, flagWSAddr
	if sshAddr == "" && wsAddr == "" {
		sshAddr = cfg.Server.SSHAddr
	}
	if sshAddr == "" && wsAddr == "" {
		return errors.New("nothing to serve: set --ssh or --ws")
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if sshAddr != "" {
		sshCfg := tui.SSHServerConfigFrom(cfg)
		sshCfg.Address = sshAddr
		sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
		if flagHostKey != "" {
			sshCfg.HostKeyPath = flagHostKey
		}
		server, err := tui.NewSSHServer(sshCfg, cfg, store, logger.WithPrefix("karol-ssh"))
		if err != nil {
			return fmt.Errorf("cannot create SSH server: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "SSH server on %s\n", server.Addr())
		g.Go(func() error { return server.Serve(ctx) })
	}

	if wsAddr != "" {
		server := ws.NewServer(cfg, store, logger.WithPrefix("karol-ws"))
		fmt.Fprintf(cmd.OutOrStdout(), "Websocket server on %s/ws\n", wsAddr)
		g.Go(func() error { return server.ListenAndServe(ctx, wsAddr) })
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
	return g.Wait()
}
