package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"CadenceFM/config"
	"CadenceFM/core/catalog"
	"CadenceFM/core/clock"
	"CadenceFM/db"
	"CadenceFM/logger"
	"CadenceFM/repository"
	"CadenceFM/storage"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	normalizer, err := clock.NewNormalizer(cfg.CatalogUTCOffset)
	if err != nil {
		logger.Fatal("Invalid CATALOG_UTC_OFFSET", logger.ErrorField(err))
	}

	repo, cleanup, err := BuildCatalogRepository(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize catalog store", logger.ErrorField(err))
	}
	defer cleanup()

	cleaner := storage.NewCleaner(storage.GetMinioClient(), cfg.MinioBucket)
	uploader := storage.NewUploader(storage.GetMinioClient(), cfg.MinioBucket, cfg.MinioPublicBaseURL)
	service := catalog.NewService(repo, cleaner, normalizer)
	apiHandler := NewAPIHandler(service, uploader, cfg)

	// The file backend gets a watcher so external edits of the document
	// leave a trail in the logs.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if fileRepo, ok := repo.(*repository.FileCatalogRepository); ok {
		go func() {
			if err := fileRepo.WatchExternalChanges(watchCtx); err != nil {
				logger.Warn("Catalog watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Event catalog endpoints
	router.HandleFunc("/api/events", apiHandler.ListEventsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/events", apiHandler.CreateEventHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/events", apiHandler.DeleteAllEventsHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/events/sweep", apiHandler.SweepExpiredEventsHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/events/{id}", apiHandler.UpdateEventHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/events/{id}", apiHandler.DeleteEventHandler).Methods(http.MethodDelete)

	// Upload collaborators
	router.HandleFunc("/api/upload", apiHandler.UploadTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/upload/cover", apiHandler.UploadCoverHandler).Methods(http.MethodPost)

	// MinIO-backed object serving
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")
		client := storage.GetMinioClient()
		if client == nil {
			http.Error(w, "MinIO client not available", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := client.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasPrefix(objectPath, "covers/") {
			contentType = "image/jpeg"
		} else if strings.HasPrefix(objectPath, "audio/") {
			contentType = "audio/mpeg"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000") // locators are immutable

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("Error serving object", logger.String("key", objectPath), logger.ErrorField(err))
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// BuildCatalogRepository builds the configured catalog store backend and
// returns it with a cleanup function for its connections.
func BuildCatalogRepository(cfg *config.Config) (repository.CatalogRepository, func(), error) {
	switch cfg.CatalogStore {
	case "file":
		return repository.NewFileCatalogRepository(cfg.CatalogPath), func() {}, nil
	case "redis":
		if err := db.ConnectRedis(cfg); err != nil {
			return nil, nil, err
		}
		return repository.NewRedisCatalogRepository(db.RedisClient, cfg.CatalogRedisKey), func() {
			db.CloseRedis()
		}, nil
	case "mysql":
		if err := db.ConnectGormDB(cfg); err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrateModels(&repository.CatalogDocument{}); err != nil {
			db.CloseGormDB()
			return nil, nil, err
		}
		return repository.NewMySQLCatalogRepository(db.GormDB), func() {
			db.CloseGormDB()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown CATALOG_STORE %q, expected file, redis or mysql", cfg.CatalogStore)
	}
}
