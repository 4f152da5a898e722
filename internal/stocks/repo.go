package stocks

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seemyown/StockController/internal/repo"
	"github.com/seemyown/StockController/pkg/db/models"
)

// Repository handles stock persistence. Every method runs on the supplied unit of work.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to stock operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the stock row followed by its initial capacity record.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, stock *models.Stock, capacity *models.StockCapacity) error {
	conn := r.Conn(ctx, tx)
	if err := conn.Omit(clause.Associations).Create(stock).Error; err != nil {
		return err
	}
	return conn.Create(capacity).Error
}

// FindDetail loads a stock with its city, capacity rows and every allocation with its item.
func (r *Repository) FindDetail(ctx context.Context, tx *gorm.DB, id int64) (*models.Stock, error) {
	var stock models.Stock
	err := r.Conn(ctx, tx).
		Preload("City").
		Preload("Capacities").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_id ASC")
		}).
		Preload("Items.Item").
		Where("id = ?", id).
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// List returns every stock with its city and capacity rows, without allocations.
func (r *Repository) List(ctx context.Context, tx *gorm.DB) ([]models.Stock, error) {
	var stocks []models.Stock
	err := r.Conn(ctx, tx).
		Preload("City").
		Preload("Capacities").
		Order("name ASC").
		Order("id ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

// Delete removes the stock; the schema cascades its capacity and allocation rows.
func (r *Repository) Delete(ctx context.Context, tx *gorm.DB, id int64) (int64, error) {
	res := r.Conn(ctx, tx).Where("id = ?", id).Delete(&models.Stock{})
	return res.RowsAffected, res.Error
}
