package items

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seemyown/StockController/internal/repo"
	"github.com/seemyown/StockController/pkg/db/models"
)

// Repository persists items and their per-stock allocations.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to item operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CreateItem(ctx context.Context, tx *gorm.DB, item *models.Item) error {
	return r.Conn(ctx, tx).Omit(clause.Associations).Create(item).Error
}

// CreateLinks inserts allocation rows one by one so a failing row names itself in the error.
func (r *Repository) CreateLinks(ctx context.Context, tx *gorm.DB, links []models.ItemStockLink) error {
	conn := r.Conn(ctx, tx)
	for i := range links {
		if err := conn.Omit(clause.Associations).Create(&links[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateLinkRemains sets the quantity of the (item, stock) allocation and reports affected rows.
func (r *Repository) UpdateLinkRemains(ctx context.Context, tx *gorm.DB, itemID, stockID int64, remains int, at time.Time) (int64, error) {
	res := r.Conn(ctx, tx).
		Model(&models.ItemStockLink{}).
		Where("item_id = ? AND stock_id = ?", itemID, stockID).
		Updates(map[string]any{"remains": remains, "date_update": at})
	return res.RowsAffected, res.Error
}

// DeleteItem removes the item; the schema cascades every allocation it had.
func (r *Repository) DeleteItem(ctx context.Context, tx *gorm.DB, id int64) (int64, error) {
	res := r.Conn(ctx, tx).Where("id = ?", id).Delete(&models.Item{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteLink(ctx context.Context, tx *gorm.DB, itemID, stockID int64) (int64, error) {
	res := r.Conn(ctx, tx).
		Where("item_id = ? AND stock_id = ?", itemID, stockID).
		Delete(&models.ItemStockLink{})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindByID(ctx context.Context, tx *gorm.DB, id int64) (*models.Item, error) {
	var item models.Item
	err := r.Conn(ctx, tx).
		Preload("Stocks", orderByStock).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) List(ctx context.Context, tx *gorm.DB) ([]models.Item, error) {
	var rows []models.Item
	err := r.Conn(ctx, tx).
		Preload("Stocks", orderByStock).
		Order("article ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func orderByStock(db *gorm.DB) *gorm.DB {
	return db.Order("stock_id ASC")
}
