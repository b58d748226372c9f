package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmforge/arena/internal/agents"
	"github.com/swarmforge/arena/internal/engine"
	"github.com/swarmforge/arena/internal/hypothesis"
	"github.com/swarmforge/arena/internal/persistence"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one arena simulation locally",
		Long: `Run a hypothesis with the mock settler and print the result.

Examples:
  arenactl run --hyp 1 --seed 42
  arenactl run --hyp 5 --rounds 12 --json
  arenactl run --hyp 2 --save --db data/arena.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			hypID, _ := cmd.Flags().GetInt("hyp")
			rounds, _ := cmd.Flags().GetInt("rounds")
			jsonOut, _ := cmd.Flags().GetBool("json")
			save, _ := cmd.Flags().GetBool("save")
			dbPath, _ := cmd.Flags().GetString("db")

			var seed *int64
			if cmd.Flags().Changed("seed") {
				v, _ := cmd.Flags().GetInt64("seed")
				seed = &v
			}

			runner := &engine.Runner{Catalog: hypothesis.Builtin()}
			res, err := runner.Run(context.Background(), engine.Input{
				HypothesisID: hypID,
				Seed:         seed,
				Rounds:       rounds,
			})
			if err != nil {
				return err
			}

			if save {
				db, err := persistence.Open(dbPath)
				if err != nil {
					return fmt.Errorf("open archive: %w", err)
				}
				defer db.Close()
				if err := db.SaveRun(res); err != nil {
					return err
				}
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Printf("%s  (hypothesis %d: %s, seed %d)\n\n", res.RunID, res.Config.ID, res.Config.Name, res.Seed)
			for _, e := range res.Ledger {
				visibility := "public"
				if !e.Public {
					visibility = "private"
				}
				fmt.Printf("  r%02d  %-9s  %-10s -> %-10s  %12.6f  [%s]\n",
					e.Round, e.Kind, e.From, e.To, e.Amount, visibility)
			}
			fmt.Println()
			for _, id := range []agents.ID{agents.Oracle, agents.Trader, agents.Strategist} {
				fmt.Printf("  %-10s  %0.6f USDC\n", id, res.Balances[id])
			}
			fmt.Println()
			fmt.Println(res.Summary.Text)
			return nil
		},
	}

	cmd.Flags().Int("hyp", 1, "hypothesis id")
	cmd.Flags().Int64("seed", 0, "run seed (omit for a random one)")
	cmd.Flags().Int("rounds", 0, "rounds to simulate (default 10)")
	cmd.Flags().Bool("json", false, "print the full run envelope as JSON")
	cmd.Flags().Bool("save", false, "archive the run")
	cmd.Flags().String("db", "data/arena.db", "run archive path (with --save)")
	return cmd
}
