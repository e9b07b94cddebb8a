package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"CadenceFM/config"
	"CadenceFM/server"
	"CadenceFM/storage"

	"github.com/spf13/cobra"
)

var (
	bucketPrefix  string
	bucketOrphans bool
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Inspect the object storage bucket",
	Long: `List the objects in the bucket and optionally cross-check them against the
catalog: objects no event references are flagged as orphans. Updates that
replace an event's tracks or cover leave the old objects behind, so orphans
accumulate until cleaned up by hand. Read-only.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		objects, err := storage.ListBucketObjects(ctx, storage.GetMinioClient(), cfg.MinioBucket, bucketPrefix)
		if err != nil {
			log.Fatalf("Failed to list bucket: %v", err)
		}

		referenced := map[string]bool{}
		if bucketOrphans {
			repo, cleanup, err := server.BuildCatalogRepository(cfg)
			if err != nil {
				log.Fatalf("Failed to initialize catalog store: %v", err)
			}
			defer cleanup()

			events, err := repo.ReadAll(ctx)
			if err != nil {
				log.Fatalf("Failed to read catalog: %v", err)
			}

			cleaner := storage.NewCleaner(storage.GetMinioClient(), cfg.MinioBucket)
			for i := range events {
				for _, locator := range events[i].AssetLocators() {
					key, err := cleaner.ObjectKey(locator)
					if err != nil {
						log.Printf("Catalog holds an unparsable locator: %v", err)
						continue
					}
					referenced[key] = true
				}
			}
		}

		var totalSize int64
		orphanCount := 0
		fmt.Printf("Bucket: %s (prefix %q)\n", cfg.MinioBucket, bucketPrefix)
		for _, obj := range objects {
			totalSize += obj.Size
			marker := ""
			if bucketOrphans && !referenced[obj.Key] {
				marker = "  [orphan]"
				orphanCount++
			}
			fmt.Printf("  %s  %s  %s%s\n", obj.Key, storage.FormatSize(obj.Size),
				obj.LastModified.Format("2006-01-02 15:04:05"), marker)
		}
		fmt.Printf("Total: %d object(s), %s\n", len(objects), storage.FormatSize(totalSize))
		if bucketOrphans {
			fmt.Printf("Orphans: %d object(s) not referenced by any event\n", orphanCount)
		}
	},
}

func init() {
	bucketCmd.Flags().StringVarP(&bucketPrefix, "prefix", "p", "", "only list objects under this key prefix")
	bucketCmd.Flags().BoolVar(&bucketOrphans, "orphans", false, "cross-check objects against catalog references")
	rootCmd.AddCommand(bucketCmd)
}
