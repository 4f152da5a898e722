package capacity

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/seemyown/StockController/internal/repo"
	"github.com/seemyown/StockController/pkg/db/models"
)

// Repository reads allocation rows and rewrites stock capacity records.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListLinkRemains loads the stock and quantity of every allocation row.
func (r *Repository) ListLinkRemains(ctx context.Context, tx *gorm.DB) ([]models.ItemStockLink, error) {
	var links []models.ItemStockLink
	if err := r.Conn(ctx, tx).Select("stock_id", "remains").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// ListCapacities returns every capacity record of a stock.
func (r *Repository) ListCapacities(ctx context.Context, tx *gorm.DB, stockID int64) ([]models.StockCapacity, error) {
	var rows []models.StockCapacity
	if err := r.Conn(ctx, tx).Where("stock_id = ?", stockID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStockRemains writes remains on every capacity record of the stock; capacity and free space are untouched.
func (r *Repository) UpdateStockRemains(ctx context.Context, tx *gorm.DB, stockID int64, remains int, at time.Time) (int64, error) {
	res := r.Conn(ctx, tx).
		Model(&models.StockCapacity{}).
		Where("stock_id = ?", stockID).
		Updates(map[string]any{"remains": remains, "date_update": at})
	return res.RowsAffected, res.Error
}

// UpdateCapacityRow writes remains and free space on a single capacity record.
func (r *Repository) UpdateCapacityRow(ctx context.Context, tx *gorm.DB, id int64, remains int, freePercent float64, at time.Time) error {
	return r.Conn(ctx, tx).
		Model(&models.StockCapacity{}).
		Where("id = ?", id).
		Updates(map[string]any{"remains": remains, "free_percent": freePercent, "date_update": at}).Error
}
