package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/registry"
)

var flagShowSource bool

var examplesCmd = &cobra.Command{
	Use:   "examples [id]",
	Short: "List the built-in examples",
	Long: `Shows the example programs that ship with karol. With an ID, prints
the example's description and source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExamples,
}

func init() {
	examplesCmd.Flags().BoolVar(&flagShowSource, "source", true, "Print the source when an ID is given")
}

func runExamples(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		ex, err := registry.Create(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s - %s\n", ex.ID, ex.Title)
		if ex.Description != "" {
			fmt.Fprintf(out, "\n%s\n", ex.Description)
		}
		fmt.Fprintf(out, "\nWorld: %dx%dx%d\n", ex.World.Width, ex.World.Depth, ex.World.Height)
		if flagShowSource {
			fmt.Fprintf(out, "\n%s\n", ex.Source)
		}
		return nil
	}

	examples := registry.List()
	if len(examples) == 0 {
		fmt.Fprintln(out, "No examples available.")
		return nil
	}

	fmt.Fprintln(out, "Available examples:")
	fmt.Fprintln(out)

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, e := range examples {
		maxIDLen = max(maxIDLen, len(e.ID))
	}

	fmt.Fprintf(out, "  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Fprintf(out, "  %-*s  %s\n", maxIDLen, "--", "-----")
	for _, e := range examples {
		fmt.Fprintf(out, "  %-*s  %s\n", maxIDLen, e.ID, e.Title)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run 'karol play --example <id>' to watch one.")
	return nil
}
