package stocks

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/db/models"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/idgen"
	"github.com/seemyown/StockController/pkg/logger"
)

// Service exposes the stock directory.
type Service interface {
	CreateStock(ctx context.Context, input CreateStockInput) (int64, error)
	GetStock(ctx context.Context, id int64) (*StockDetailDTO, error)
	ListStocks(ctx context.Context) ([]StockDTO, error)
	DeleteStock(ctx context.Context, id int64) error
}

type stockRepository interface {
	Create(ctx context.Context, tx *gorm.DB, stock *models.Stock, capacity *models.StockCapacity) error
	FindDetail(ctx context.Context, tx *gorm.DB, id int64) (*models.Stock, error)
	List(ctx context.Context, tx *gorm.DB) ([]models.Stock, error)
	Delete(ctx context.Context, tx *gorm.DB, id int64) (int64, error)
}

type cityLookup interface {
	FindByName(ctx context.Context, tx *gorm.DB, name string) (*models.City, error)
}

// ServiceParams wires the stock service dependencies.
type ServiceParams struct {
	DB         db.TxRunner
	Repo       stockRepository
	Cities     cityLookup
	IDs        idgen.Generator
	CodeLength int
	Logger     *logger.Logger
}

type service struct {
	db         db.TxRunner
	repo       stockRepository
	cities     cityLookup
	ids        idgen.Generator
	codeLength int
	logg       *logger.Logger
}

// NewService constructs the stock service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Cities == nil {
		return nil, fmt.Errorf("city lookup required")
	}
	if params.IDs == nil {
		return nil, fmt.Errorf("id generator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	codeLength := params.CodeLength
	if codeLength <= 0 {
		codeLength = idgen.StockCodeLength
	}
	return &service{
		db:         params.DB,
		repo:       params.Repo,
		cities:     params.Cities,
		ids:        params.IDs,
		codeLength: codeLength,
		logg:       params.Logger,
	}, nil
}

// CreateStock inserts the stock and its initial capacity record in one unit of work.
func (s *service) CreateStock(ctx context.Context, input CreateStockInput) (int64, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Capacity < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be non-negative")
	}
	cityName := strings.TrimSpace(input.CityName)
	if input.CityID == 0 && cityName == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}

	stock := &models.Stock{
		ID:     s.ids.NextID(),
		Code:   s.ids.Code(s.codeLength),
		Name:   name,
		CityID: input.CityID,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if stock.CityID == 0 {
			city, err := s.cities.FindByName(ctx, tx, cityName)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeValidation, "city not found").WithDetails(map[string]any{"city": cityName})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find city")
			}
			stock.CityID = city.ID
		}

		capacity := &models.StockCapacity{
			ID:          s.ids.NextID(),
			StockID:     stock.ID,
			Capacity:    input.Capacity,
			FreePercent: 100,
		}
		if err := s.repo.Create(ctx, tx, stock, capacity); err != nil {
			switch {
			case db.IsForeignKeyViolation(err):
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "city not found").WithDetails(map[string]any{"city_id": stock.CityID})
			case db.IsUniqueViolation(err, ""):
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "stock identifier or code already exists")
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert stock")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	ctx = s.logg.WithStockID(ctx, stock.ID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"code": stock.Code, "city_id": stock.CityID}), "stock.created")
	return stock.ID, nil
}

// GetStock returns the stock with every allocation; NotFound when the id is unknown.
func (s *service) GetStock(ctx context.Context, id int64) (*StockDetailDTO, error) {
	var detail StockDetailDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		stock, err := s.repo.FindDetail(ctx, tx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load stock")
		}
		detail = DetailFromModel(*stock)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *service) ListStocks(ctx context.Context) ([]StockDTO, error) {
	var out []StockDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.List(ctx, tx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stocks")
		}
		out = make([]StockDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, FromModel(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteStock is idempotent: an unknown id deletes nothing and is not an error.
func (s *service) DeleteStock(ctx context.Context, id int64) error {
	var affected int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete stock")
		}
		affected = rows
		return nil
	})
	if err != nil {
		return err
	}
	ctx = s.logg.WithFields(s.logg.WithStockID(ctx, id), map[string]any{"rows": affected})
	s.logg.Info(ctx, "stock.deleted")
	return nil
}
