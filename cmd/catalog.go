package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"CadenceFM/config"
	"CadenceFM/core/clock"
	"CadenceFM/server"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Dump the persisted event catalog",
	Long:  `Read the catalog document from the configured store and print every event with its window in local wall-clock time.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		normalizer, err := clock.NewNormalizer(cfg.CatalogUTCOffset)
		if err != nil {
			log.Fatalf("Invalid CATALOG_UTC_OFFSET: %v", err)
		}

		repo, cleanup, err := server.BuildCatalogRepository(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize catalog store: %v", err)
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		events, err := repo.ReadAll(ctx)
		if err != nil {
			log.Fatalf("Failed to read catalog: %v", err)
		}

		now := time.Now().UTC()
		fmt.Printf("Catalog (%s store): %d event(s)\n", cfg.CatalogStore, len(events))
		for i := range events {
			e := &events[i]
			status := "active"
			if e.Expired(now) {
				status = "expired"
			}
			fmt.Printf("  %s  %s — %s  [%s]\n", e.ID, normalizer.ToLocal(e.StartTime), normalizer.ToLocal(e.EndTime), status)
			fmt.Printf("    %s by %s, %d track(s)", e.Name, e.Artist, len(e.Tracks))
			if e.CoverURL != "" {
				fmt.Printf(", cover %s", e.CoverURL)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
