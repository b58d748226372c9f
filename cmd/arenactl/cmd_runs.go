package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/swarmforge/arena/internal/persistence"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse the run archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			db, err := persistence.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("No archived runs.")
				return nil
			}
			for _, m := range runs {
				fmt.Printf("%-24s  hyp %d (%s)  seed=%d  rounds=%d  %s\n",
					m.RunID, m.HypothesisID, m.HypothesisName, m.Seed, m.Rounds,
					humanize.Time(m.CreatedAt))
			}
			return nil
		},
	}

	cmd.Flags().String("db", "data/arena.db", "run archive path")
	cmd.Flags().Int("limit", 20, "max runs to list")
	cmd.Flags().Bool("json", false, "print as JSON")

	cmd.AddCommand(newRunsShowCmd())
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one archived run envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")

			db, err := persistence.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer db.Close()

			res, err := db.LoadRun(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().String("db", "data/arena.db", "run archive path")
	return cmd
}
