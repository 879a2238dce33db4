package repository

import (
	"context"
	"lounge-portal/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProcessedPaymentRepository interface {
	Claim(ctx context.Context, tx *gorm.DB, record *model.ProcessedPayment) (bool, error)
	Find(ctx context.Context, tx *gorm.DB, sessionID string) (*model.ProcessedPayment, error)
}

type processedPaymentRepoImpl struct {
	db *gorm.DB
}

func NewProcessedPaymentRepository(db *gorm.DB) ProcessedPaymentRepository {
	return &processedPaymentRepoImpl{db: db}
}

// Claim records the session as processed. It reports false when a record for
// the session already exists, in which case the caller must not repeat side
// effects.
func (r *processedPaymentRepoImpl) Claim(ctx context.Context, tx *gorm.DB, record *model.ProcessedPayment) (bool, error) {
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}

	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(record)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *processedPaymentRepoImpl) Find(ctx context.Context, tx *gorm.DB, sessionID string) (*model.ProcessedPayment, error) {
	var record model.ProcessedPayment
	err := tx.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error

	if err != nil {
		return nil, err
	}

	return &record, nil
}
