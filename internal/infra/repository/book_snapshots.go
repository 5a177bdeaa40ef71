package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orderbook_server/internal/domain"
)

// BookSnapshotModel stores the last accepted aggregation result for one
// selection. One row per selection; the trade book itself is kept as JSON
// since the cache is only ever read back whole.
type BookSnapshotModel struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	SelectionKey string         `gorm:"column:selection_key;uniqueIndex;not null"`
	Payload      datatypes.JSON `gorm:"column:payload;not null"`
	TakenAt      time.Time      `gorm:"column:taken_at;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (BookSnapshotModel) TableName() string {
	return "book_snapshots"
}

type GormSnapshotRepository struct {
	db *gorm.DB
}

func NewGormSnapshotRepository(db *gorm.DB) (*GormSnapshotRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if err := db.AutoMigrate(&BookSnapshotModel{}); err != nil {
		return nil, fmt.Errorf("migrate book snapshots: %w", err)
	}
	return &GormSnapshotRepository{db: db}, nil
}

// ReplaceBook upserts the snapshot for the given selection, superseding any
// previous one.
func (r *GormSnapshotRepository) ReplaceBook(ctx context.Context, selectionKey string, book domain.TradeBook) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode trade book: %w", err)
	}

	model := BookSnapshotModel{
		SelectionKey: selectionKey,
		Payload:      payload,
		TakenAt:      time.Now().UTC(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "selection_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"payload":    gorm.Expr("EXCLUDED.payload"),
				"taken_at":   gorm.Expr("EXCLUDED.taken_at"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(&model).Error
}

// LoadBook returns the cached book for the selection, or an empty book when
// no snapshot exists yet.
func (r *GormSnapshotRepository) LoadBook(ctx context.Context, selectionKey string) (domain.TradeBook, error) {
	var model BookSnapshotModel
	err := r.db.WithContext(ctx).
		Where("selection_key = ?", selectionKey).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.TradeBook{}, nil
	}
	if err != nil {
		return domain.TradeBook{}, err
	}

	var book domain.TradeBook
	if err := json.Unmarshal(model.Payload, &book); err != nil {
		return domain.TradeBook{}, fmt.Errorf("decode trade book: %w", err)
	}
	return book, nil
}
