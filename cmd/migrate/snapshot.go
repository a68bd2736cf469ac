package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/internal/masterdata"
)

var snapshotDB string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Parse the master source and store it in the SQLite snapshot",
	Long: `Parses the configured master source and saves the resulting records
under their version, so later runs with master.snapshot_path set start
from the snapshot instead of reparsing the dump.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openSnapshotStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		master, stats, err := bootstrap.ParseMaster(cfg.Master, zap.L())
		if err != nil {
			return eris.Wrap(err, "snapshot")
		}
		if err := store.Save(ctx, master, cfg.Master.Source()); err != nil {
			return eris.Wrap(err, "snapshot: save")
		}

		zap.L().Info("snapshot saved",
			zap.String("version", master.Version()),
			zap.Int("records", stats.Records))

		versions, err := store.Versions(ctx)
		if err != nil {
			return eris.Wrap(err, "snapshot: list")
		}
		return printJSON(cmd.OutOrStdout(), versions)
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored master versions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openSnapshotStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		versions, err := store.Versions(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "snapshot: list")
		}
		return printJSON(cmd.OutOrStdout(), versions)
	},
}

func openSnapshotStore(cmd *cobra.Command) (*masterdata.SQLiteStore, error) {
	path := firstNonEmpty(snapshotDB, cfg.Master.SnapshotPath)
	if path == "" {
		return nil, eris.New("snapshot: a database is required (--db or master.snapshot_path)")
	}
	store, err := masterdata.NewSQLiteStore(cmd.Context(), path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: open %s", path)
	}
	return store, nil
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotDB, "db", "", "SQLite database (default master.snapshot_path)")
	snapshotCmd.AddCommand(snapshotListCmd)
	rootCmd.AddCommand(snapshotCmd)
}
