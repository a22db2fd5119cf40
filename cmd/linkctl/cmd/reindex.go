package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild backlinks for every content document in the vault",
		Long: `reindex loads the configured vault, runs the Backlink Indexer over every
content document, and seeds the Rename Detector's cache for every folder so
the next real update does not register spurious renames.`,
		RunE: runReindex,
	}
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v, err := loadVault(cfg)
	if err != nil {
		return err
	}
	if v.manager != nil {
		defer v.manager.Stop()
	}

	v.worker.ReindexAllBacklinks()

	fmt.Printf("Reindexed backlinks for vault at %s\n", v.path)
	return nil
}
