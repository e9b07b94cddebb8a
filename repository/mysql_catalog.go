package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CadenceFM/logger"
	"CadenceFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// catalogDocumentID is the primary key of the single catalog row.
const catalogDocumentID = 1

// CatalogDocument is the single-row table holding the serialized event list.
// The whole document is replaced on every write, matching the file and Redis
// backends.
type CatalogDocument struct {
	ID        uint      `gorm:"primaryKey"`
	Events    string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time
}

// TableName sets the table name for GORM.
func (CatalogDocument) TableName() string {
	return "catalog_documents"
}

// MySQLCatalogRepository stores the catalog document in one MySQL row,
// replaced transactionally on every write.
type MySQLCatalogRepository struct {
	db *gorm.DB
}

// NewMySQLCatalogRepository creates a MySQL-backed catalog store.
func NewMySQLCatalogRepository(db *gorm.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db}
}

// ReadAll returns the current event list. A missing row is an empty catalog;
// a corrupt document is logged and degraded to empty.
func (r *MySQLCatalogRepository) ReadAll(ctx context.Context) ([]model.Event, error) {
	var doc CatalogDocument
	err := r.db.WithContext(ctx).First(&doc, catalogDocumentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog document row: %w", err)
	}

	events := make([]model.Event, 0)
	if err := json.Unmarshal([]byte(doc.Events), &events); err != nil {
		logger.Warn("Catalog document is corrupt, treating as empty",
			logger.String("table", doc.TableName()),
			logger.ErrorField(err))
		return []model.Event{}, nil
	}
	return events, nil
}

// ReplaceAll overwrites the catalog row with the given list in one upsert.
func (r *MySQLCatalogRepository) ReplaceAll(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog document: %w", err)
	}

	doc := CatalogDocument{ID: catalogDocumentID, Events: string(data)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"events", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to write catalog document row: %w", err)
	}
	return nil
}
