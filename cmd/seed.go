package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/registry"
	"github.com/spigell/hire-labor/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the workers in the sqlite store",
	Long:  "Replace the workers in the sqlite store with the records of a YAML/JSON file, or with the demo workers when --from is not set.",
	Run: func(cmd *cobra.Command, _ []string) {
		seed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("from", "", "workers file to copy (default: the demo workers)")
}

func seed(cmd *cobra.Command) {
	ctx := context.Background()

	log, err := newLogger("")
	if err != nil {
		fatalf("creating a logger: %s", err)
	}
	defer log.Sync()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	if config.Store.Driver != driverSQLite {
		log.Fatal("seed needs the sqlite store", zap.String("store", config.Store.Driver))
	}

	from, _ := cmd.Flags().GetString("from")
	records, err := seedRecords(ctx, from)
	if err != nil {
		log.Fatal("reading workers to seed", zap.Error(err))
	}

	db, err := store.OpenSQLite(ctx, config.Store.Path)
	if err != nil {
		log.Fatal("opening the sqlite store", zap.Error(err))
	}
	defer db.Close()

	if err := db.Seed(ctx, records); err != nil {
		log.Fatal("seeding the sqlite store", zap.Error(err))
	}

	log.Info("seeded the sqlite store", zap.String("path", config.Store.Path), zap.Int("workers", len(records)))
}

func seedRecords(ctx context.Context, from string) ([]registry.RawRecord, error) {
	if from == "" {
		return store.DemoRecords(), nil
	}

	records, err := store.NewFile(from).FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed source: %w", err)
	}
	return records, nil
}
