package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/engine"
	"github.com/vovakirdan/tui-karol/internal/registry"
	"github.com/vovakirdan/tui-karol/internal/syntax"
)

var (
	flagCheckExample string
	flagCheckTree    bool
	flagCheckCond    bool
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse a program and report errors",
	Long: `Parse and compile a program without running it. Syntax errors and
calls to undefined procedures are reported with their position.

Examples:
  karol check burg.kdp
  karol check --example burg --tree
  karol check --condition "nicht IstWand"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagCheckExample, "example", "", "Check a built-in example")
	checkCmd.Flags().BoolVar(&flagCheckTree, "tree", false, "Print the parse tree")
	checkCmd.Flags().BoolVar(&flagCheckCond, "condition", false, "Parse the argument as a single condition expression")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if flagCheckCond {
		if len(args) != 1 {
			return fmt.Errorf("--condition needs the expression as argument")
		}
		tree, err := syntax.ParseCondition(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(out, tree.Dump())
		return nil
	}

	var name, src string
	switch {
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cannot read program: %w", err)
		}
		name, src = args[0], string(data)
	case flagCheckExample != "":
		ex, err := registry.Create(flagCheckExample)
		if err != nil {
			return err
		}
		name, src = ex.ID, ex.Source
	default:
		return fmt.Errorf("no program: pass a file or --example")
	}

	tree, err := syntax.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	prog, err := engine.Compile(tree)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if flagCheckTree {
		fmt.Fprint(out, tree.Dump())
	}
	fmt.Fprintf(out, "%s: ok (%d procedures, %d conditions)\n", name, len(prog.Procedures()), len(prog.Conditions()))
	return nil
}
