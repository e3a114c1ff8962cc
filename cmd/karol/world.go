package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/platform/tui"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/snapshot"
	"github.com/vovakirdan/tui-karol/internal/world"
)

var (
	flagWorldWidth  int
	flagWorldDepth  int
	flagWorldHeight int
)

var worldCmd = &cobra.Command{
	Use:   "world",
	Short: "Create or show world files",
	Long: `World files are JSON snapshots of a world and Karol's position. Files
ending in .zst are zstd-compressed.

Examples:
  karol world new acker.json --width 8 --depth 6
  karol world show acker.json`,
}

var worldNewCmd = &cobra.Command{
	Use:   "new <file>",
	Short: "Write an empty world",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorldNew,
}

var worldShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a world file",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorldShow,
}

func init() {
	worldNewCmd.Flags().IntVar(&flagWorldWidth, "width", 0, "Width (x), default from config")
	worldNewCmd.Flags().IntVar(&flagWorldDepth, "depth", 0, "Depth (z), default from config")
	worldNewCmd.Flags().IntVar(&flagWorldHeight, "height", 0, "Maximum stack height (y), default from config")

	worldCmd.AddCommand(worldNewCmd)
	worldCmd.AddCommand(worldShowCmd)
}

func runWorldNew(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup("karol")
	if err != nil {
		return err
	}
	if flagWorldWidth > 0 {
		cfg.World.Width = flagWorldWidth
	}
	if flagWorldDepth > 0 {
		cfg.World.Depth = flagWorldDepth
	}
	if flagWorldHeight > 0 {
		cfg.World.Height = flagWorldHeight
	}

	w, err := cfg.NewWorld()
	if err != nil {
		return err
	}
	k, err := robot.New(w, cfg.RobotSettings())
	if err != nil {
		return err
	}
	if err := snapshot.Save(args[0], snapshot.Capture(k)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%dx%d world to %s\n", cfg.World.Width, cfg.World.Depth, cfg.World.Height, args[0])
	return nil
}

func runWorldShow(cmd *cobra.Command, args []string) error {
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	k, err := karolFor(snap)
	if err != nil {
		return err
	}
	printWorld(cmd, k)
	return nil
}

// karolFor builds a robot standing in the snapshot's world.
func karolFor(snap snapshot.Snapshot) (*robot.Karol, error) {
	d := snap.World.Dimensions
	w, err := world.New(d.X, d.Y, d.Z)
	if err != nil {
		return nil, err
	}
	k, err := robot.New(w, robot.DefaultSettings())
	if err != nil {
		return nil, err
	}
	if err := snap.Apply(k); err != nil {
		return nil, err
	}
	return k, nil
}

func printWorld(cmd *cobra.Command, k *robot.Karol) {
	out := cmd.OutOrStdout()
	d := k.World().Dimensions()
	fmt.Fprintln(out, tui.RenderWorld(k))
	fmt.Fprintf(out, "%dx%dx%d, Karol at %v facing %v", d.X, d.Z, d.Y, k.Position(), k.Direction())
	if markers := k.World().Markers(); len(markers) > 0 {
		fmt.Fprintf(out, ", %d markers", len(markers))
	}
	fmt.Fprintln(out)
}
