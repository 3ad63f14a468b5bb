package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tablekit/internal/admin"
	"github.com/JonMunkholm/tablekit/internal/config"
	"github.com/JonMunkholm/tablekit/internal/dataset"
)

func newSeedCommand(g *globals) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo tables in DATABASE_URL and fill them",
		Long: "Creates every demo dataset table that is missing, empties it and inserts the demo rows. " +
			"Existing rows in those tables are lost.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.InMemory() {
				return fmt.Errorf("seed needs DATABASE_URL")
			}

			sets := dataset.DemoDatasets()
			if len(only) > 0 {
				sets = filterSets(sets, only)
				if len(sets) == 0 {
					return fmt.Errorf("no demo dataset matches %v", only)
				}
			}

			pool, err := pgxpool.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			seeder := &admin.Seeder{DB: pool, Logger: g.logger(cmd)}
			results, err := seeder.SeedAll(cmd.Context(), sets)
			printSeedResults(cmd, results)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&only, "dataset", nil, "seed only these dataset keys")
	return cmd
}

func filterSets(sets []dataset.Dataset, keys []string) []dataset.Dataset {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []dataset.Dataset
	for _, d := range sets {
		if want[d.Key] {
			out = append(out, d)
		}
	}
	return out
}

func printSeedResults(cmd *cobra.Command, results []admin.SeedResult) {
	if len(results) == 0 {
		return
	}
	tw := tablewriter.NewWriter(cmd.OutOrStdout())
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader([]string{"Dataset", "Table", "Rows", "Duration"})
	for _, r := range results {
		tw.Append([]string{r.Dataset, r.Table, strconv.Itoa(r.Inserted), r.Duration.Round(time.Millisecond).String()})
	}
	tw.Render()
}
