package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
)

var seedSkipSettings bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the master list into the Meilisearch gazetteer index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		start := time.Now()

		if cfg.Meilisearch.URL == "" {
			return eris.New("seed: meilisearch.url is required (ADDR_MEILISEARCH_URL)")
		}
		searcher, err := bootstrap.NewSearcher(cfg.Meilisearch, zap.L())
		if err != nil {
			return eris.Wrap(err, "seed")
		}

		master, err := bootstrap.LoadMaster(ctx, cfg.Master, zap.L())
		if err != nil {
			return eris.Wrap(err, "seed")
		}

		if !seedSkipSettings {
			if err := searcher.BuildIndexes(); err != nil {
				return eris.Wrap(err, "seed: index settings")
			}
		}
		if err := searcher.SeedRecords(master.Records(), master.Version()); err != nil {
			return eris.Wrap(err, "seed: documents")
		}

		zap.L().Info("seed complete",
			zap.String("index", cfg.Meilisearch.Index),
			zap.String("master_version", master.Version()),
			zap.Int("records", master.Len()),
			zap.Duration("elapsed", time.Since(start)))

		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"index":          cfg.Meilisearch.Index,
			"master_version": master.Version(),
			"records":        master.Len(),
		})
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedSkipSettings, "skip-settings", false, "keep the existing index settings")
	rootCmd.AddCommand(seedCmd)
}
