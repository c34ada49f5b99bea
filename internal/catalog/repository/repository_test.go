package repository_test

import (
	"context"
	"testing"

	"github.com/Kamohel0/green-public-website/internal/catalog/repository"
	"github.com/Kamohel0/green-public-website/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *repository.Repository {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db))

	return repository.NewRepository(db)
}

func TestGetAllProducts_ReturnsSeededCatalog(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.GetAllProducts(context.Background())
	require.NoError(t, err)

	// The init migration seeds the four storefront products.
	require.Len(t, products, 4)
	assert.Equal(t, "Sea Moss Gel", products[0].Name)
	assert.Equal(t, int64(18000), products[0].PriceMinor)
	assert.Equal(t, "Sea Moss Lip Balm", products[3].Name)
	assert.Equal(t, int64(8000), products[3].PriceMinor)
}

func TestGetProduct_Found(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.GetProduct(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "Sea Moss Body Butter", p.Name)
	assert.NotEmpty(t, p.ImageURL)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
