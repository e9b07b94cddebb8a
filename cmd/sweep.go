package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"CadenceFM/config"
	"CadenceFM/core/catalog"
	"CadenceFM/core/clock"
	"CadenceFM/server"
	"CadenceFM/storage"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired events once and exit",
	Long: `Run one delete-expired pass over the catalog: every event whose end time
has passed is removed together with its bucket objects. Meant to be triggered
from cron or by hand; the server never sweeps on its own.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}

		normalizer, err := clock.NewNormalizer(cfg.CatalogUTCOffset)
		if err != nil {
			log.Fatalf("Invalid CATALOG_UTC_OFFSET: %v", err)
		}

		repo, cleanup, err := server.BuildCatalogRepository(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize catalog store: %v", err)
		}
		defer cleanup()

		cleaner := storage.NewCleaner(storage.GetMinioClient(), cfg.MinioBucket)
		service := catalog.NewService(repo, cleaner, normalizer)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		count, err := service.DeleteExpiredEvents(ctx, time.Now().UTC())
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		fmt.Printf("Sweep complete, deleted %d expired event(s)\n", count)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
