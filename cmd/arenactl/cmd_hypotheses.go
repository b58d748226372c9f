package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmforge/arena/internal/hypothesis"
)

func newHypothesesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hypotheses",
		Short: "List the hypothesis catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			yamlPath, _ := cmd.Flags().GetString("extra")

			catalog := hypothesis.Builtin()
			if yamlPath != "" {
				var err error
				catalog, err = hypothesis.LoadYAML(yamlPath)
				if err != nil {
					return err
				}
			}

			items := catalog.Items()
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			for _, h := range items {
				flags := ""
				if h.Whistleblower {
					flags = fmt.Sprintf("  whistleblower@r%d", h.WhistleblowerRound)
				}
				if !h.PaywallStrict {
					flags += "  free-window"
				}
				fmt.Printf("%2d  %-24s  price=%v  bribe=%v@r%d  cartel=%.2f%s\n",
					h.ID, h.Name, h.Price, h.BribeAmount, h.BribeRound, h.CartelChance, flags)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print as JSON")
	cmd.Flags().String("extra", "", "merge extra hypotheses from a YAML file")
	return cmd
}
