package cities

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/seemyown/StockController/internal/repo"
	"github.com/seemyown/StockController/pkg/db/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository reads the administratively seeded city directory.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns every city ordered by name; withStocks preloads stocks and their capacity rows.
func (r *Repository) List(ctx context.Context, tx *gorm.DB, withStocks bool) ([]models.City, error) {
	query := r.Conn(ctx, tx).Order("name ASC").Order("id ASC")
	if withStocks {
		query = query.
			Preload("Stocks", func(db *gorm.DB) *gorm.DB {
				return db.Order("name ASC").Order("id ASC")
			}).
			Preload("Stocks.Capacities")
	}
	var cities []models.City
	if err := query.Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

// SearchByPrefix matches names starting with prefix, ignoring case.
// SQLite's LOWER() folds ASCII letters only, so on sqlite a non-ASCII prefix
// must match the stored letter case ("Мос" finds "Москва", "МОС" does not).
// Postgres folds Unicode and has no such limit.
func (r *Repository) SearchByPrefix(ctx context.Context, tx *gorm.DB, prefix string) ([]models.City, error) {
	pattern := likeEscaper.Replace(prefix) + "%"
	var cities []models.City
	err := r.Conn(ctx, tx).
		Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, pattern).
		Order("name ASC").
		Order("id ASC").
		Find(&cities).Error
	if err != nil {
		return nil, err
	}
	return cities, nil
}

// FindByName is an exact-name lookup returning gorm.ErrRecordNotFound when absent.
func (r *Repository) FindByName(ctx context.Context, tx *gorm.DB, name string) (*models.City, error) {
	var city models.City
	if err := r.Conn(ctx, tx).Where("name = ?", name).Order("id ASC").First(&city).Error; err != nil {
		return nil, err
	}
	return &city, nil
}
