package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/storage"
)

var worldsCmd = &cobra.Command{
	Use:   "worlds",
	Short: "Manage the saved world library",
	Long: `The world library keeps named worlds in the karol database so they can
be used with --saved.

Examples:
  karol worlds
  karol worlds save acker acker.json
  karol worlds export acker copy.json.zst
  karol worlds delete acker`,
	Args: cobra.NoArgs,
	RunE: runWorldsList,
}

var worldsSaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Import a world file into the library",
	Args:  cobra.ExactArgs(2),
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store, args []string) error {
		snap, err := snapshot.Load(args[1])
		if err != nil {
			return err
		}
		if err := store.SaveWorld(args[0], snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
		return nil
	}),
}

var worldsExportCmd = &cobra.Command{
	Use:   "export <name> <file>",
	Short: "Write a library world to a file",
	Args:  cobra.ExactArgs(2),
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store, args []string) error {
		snap, err := store.LoadWorld(args[0])
		if err != nil {
			return errNotFound(err, args[0])
		}
		return snapshot.Save(args[1], snap)
	}),
}

var worldsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a library world",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store, args []string) error {
		snap, err := store.LoadWorld(args[0])
		if err != nil {
			return errNotFound(err, args[0])
		}
		k, err := karolFor(snap)
		if err != nil {
			return err
		}
		printWorld(cmd, k)
		return nil
	}),
}

var worldsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a world from the library",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store, args []string) error {
		return errNotFound(store.DeleteWorld(args[0]), args[0])
	}),
}

func init() {
	worldsCmd.AddCommand(worldsSaveCmd)
	worldsCmd.AddCommand(worldsExportCmd)
	worldsCmd.AddCommand(worldsShowCmd)
	worldsCmd.AddCommand(worldsDeleteCmd)
}

// withStore opens the database for commands that cannot work without it.
func withStore(fn func(*cobra.Command, *storage.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup("karol")
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.DBPath())
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

var runWorldsList = withStore(func(cmd *cobra.Command, store *storage.Store, _ []string) error {
	out := cmd.OutOrStdout()
	entries, err := store.ListWorlds()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No saved worlds.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'karol worlds save <name> <file>' to add one.")
		return nil
	}

	maxNameLen := 4 // "Name" header
	for _, e := range entries {
		maxNameLen = max(maxNameLen, len(e.Name))
	}
	fmt.Fprintf(out, "  %-*s  %-10s  %s\n", maxNameLen, "Name", "Size", "Updated")
	fmt.Fprintf(out, "  %-*s  %-10s  %s\n", maxNameLen, "----", "----", "-------")
	for _, e := range entries {
		updated := "-"
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "  %-*s  %-10s  %s\n", maxNameLen, e.Name, e.Dimensions, updated)
	}
	return nil
})

// errNotFound gives library lookups a friendlier message.
func errNotFound(err error, name string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no saved world %q (see 'karol worlds')", name)
	}
	return err
}
