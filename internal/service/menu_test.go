package service

import (
	"context"
	"lounge-portal/internal/repository"
	"lounge-portal/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuService(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMenuRepository(testutil.NewDB(t))
	require.NoError(t, repo.Seed(ctx))
	// seeding twice keeps one copy of each item
	require.NoError(t, repo.Seed(ctx))

	menu := NewMenuService(repo)

	all, err := menu.ListMenu(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	drinks, err := menu.ListMenu(ctx, " drink ")
	require.NoError(t, err)
	require.Len(t, drinks, 2)
	for _, d := range drinks {
		assert.Equal(t, "DRINK", d.Category)
	}

	nachos, err := menu.GetItem(ctx, "nachos")
	require.NoError(t, err)
	requireDecimal(t, "8.50", nachos.Price)

	_, err = menu.GetItem(ctx, "caviar")
	assert.ErrorIs(t, err, ErrNotFound)
}
