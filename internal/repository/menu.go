package repository

import (
	"context"
	"lounge-portal/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MenuRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, menuItemID string) (*model.MenuItem, error)
	ListAvailable(ctx context.Context, category string) ([]*model.MenuItem, error)
}

type menuRepoImpl struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepoImpl{
		db: db,
	}
}

func (r *menuRepoImpl) Seed(ctx context.Context) error {
	items := []model.MenuItem{
		{ID: "nachos", Name: "Loaded Nachos", Category: "SNACK", Price: decimal.RequireFromString("8.50"), Available: true},
		{ID: "popcorn", Name: "Butter Popcorn", Category: "SNACK", Price: decimal.RequireFromString("4.00"), Available: true},
		{ID: "energy_drink", Name: "Energy Drink", Category: "DRINK", Price: decimal.RequireFromString("3.50"), Available: true},
		{ID: "soda", Name: "Soda", Category: "DRINK", Price: decimal.RequireFromString("2.50"), Available: true},
		{ID: "raid_combo", Name: "Raid Night Combo", Category: "COMBO", Price: decimal.RequireFromString("20.00"), Available: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&items).Error
}

func (r *menuRepoImpl) FindByID(ctx context.Context, menuItemID string) (*model.MenuItem, error) {
	var item model.MenuItem
	err := r.db.WithContext(ctx).
		Where("id = ?", menuItemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *menuRepoImpl) ListAvailable(ctx context.Context, category string) ([]*model.MenuItem, error) {
	var items []*model.MenuItem
	query := r.db.WithContext(ctx).Where("available = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	err := query.Order("category ASC").Order("name ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
