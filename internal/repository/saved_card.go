package repository

import (
	"context"
	"lounge-portal/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SavedCardRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, card *model.SavedCard) error
	ListByUser(ctx context.Context, userID string) ([]*model.SavedCard, error)
	Get(ctx context.Context, userID, paymentMethodID string) (*model.SavedCard, error)
	Delete(ctx context.Context, userID, paymentMethodID string) error
}

type savedCardRepoImpl struct {
	db *gorm.DB
}

func NewSavedCardRepository(db *gorm.DB) SavedCardRepository {
	return &savedCardRepoImpl{
		db: db,
	}
}

// Upsert is keyed by the Stripe payment method id, so repeated deliveries
// rewrite the same row.
func (r *savedCardRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, card *model.SavedCard) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_method_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"user_id":     card.UserID,
			"customer_id": card.CustomerID,
			"brand":       card.Brand,
			"last4":       card.Last4,
			"exp_month":   card.ExpMonth,
			"exp_year":    card.ExpYear,
			"updated_at":  time.Now(),
		}),
	}).Create(card).Error
}

func (r *savedCardRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.SavedCard, error) {
	var cards []*model.SavedCard
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&cards).Error

	if err != nil {
		return nil, err
	}

	return cards, nil
}

func (r *savedCardRepoImpl) Get(ctx context.Context, userID, paymentMethodID string) (*model.SavedCard, error) {
	var card model.SavedCard
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND payment_method_id = ?", userID, paymentMethodID).
		First(&card).Error

	if err != nil {
		return nil, err
	}

	return &card, nil
}

func (r *savedCardRepoImpl) Delete(ctx context.Context, userID, paymentMethodID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND payment_method_id = ?", userID, paymentMethodID).
		Delete(&model.SavedCard{}).Error
}
