package repository

import (
	"context"
	"time"

	"github.com/fastfire9/empire-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FlaggedHashRepository interface {
	// Insert records the hash; inserting a hash that already exists is a
	// no-op, not an error.
	Insert(ctx context.Context, hash string) error
	Exists(ctx context.Context, hash string) (bool, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type flaggedHashRepository struct {
	db *gorm.DB
}

func NewFlaggedHashRepository(db *gorm.DB) FlaggedHashRepository {
	return &flaggedHashRepository{db: db}
}

func (r *flaggedHashRepository) Insert(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.FlaggedImageHash{Hash: hash}).Error
}

func (r *flaggedHashRepository) Exists(ctx context.Context, hash string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.FlaggedImageHash{}).
		Where("hash = ?", hash).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *flaggedHashRepository) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", time.Now().Add(-age)).
		Delete(&model.FlaggedImageHash{})
	return res.RowsAffected, res.Error
}
