package service

import (
	"context"
	"fmt"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"strings"
)

type MenuService interface {
	ListMenu(ctx context.Context, category string) ([]*model.MenuItem, error)
	GetItem(ctx context.Context, menuItemID string) (*model.MenuItem, error)
}

type menuServiceImpl struct {
	menuRepo repository.MenuRepository
}

func NewMenuService(menuRepo repository.MenuRepository) MenuService {
	return &menuServiceImpl{
		menuRepo: menuRepo,
	}
}

func (s *menuServiceImpl) ListMenu(ctx context.Context, category string) ([]*model.MenuItem, error) {
	return s.menuRepo.ListAvailable(ctx, strings.ToUpper(strings.TrimSpace(category)))
}

func (s *menuServiceImpl) GetItem(ctx context.Context, menuItemID string) (*model.MenuItem, error) {
	item, err := s.menuRepo.FindByID(ctx, menuItemID)
	if repository.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	return item, nil
}
