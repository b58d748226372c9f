// Command arenactl is the operator CLI for the arena: run simulations
// locally, inspect the hypothesis catalog, and browse the run archive.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "arenactl",
		Short:         "SwarmForge arena operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newHypothesesCmd(),
		newRunsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
