package items

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/seemyown/StockController/internal/capacity"
	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/db/models"
	"github.com/seemyown/StockController/pkg/enums"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/idgen"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/metrics"
)

// Service imports items and mutates their per-stock allocations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (ImportResult, error)
	CreateManyItems(ctx context.Context, inputs []CreateItemInput) ([]ImportResult, error)
	UpdateItems(ctx context.Context, updates []AllocationUpdate) error
	DeleteItems(ctx context.Context, refs []AllocationRef) error
	RemoveAllocations(ctx context.Context, refs []AllocationRef) error
	GetItems(ctx context.Context) ([]ItemDTO, error)
	GetItem(ctx context.Context, id int64) (*ItemDTO, error)
}

type itemRepository interface {
	CreateItem(ctx context.Context, tx *gorm.DB, item *models.Item) error
	CreateLinks(ctx context.Context, tx *gorm.DB, links []models.ItemStockLink) error
	UpdateLinkRemains(ctx context.Context, tx *gorm.DB, itemID, stockID int64, remains int, at time.Time) (int64, error)
	DeleteItem(ctx context.Context, tx *gorm.DB, id int64) (int64, error)
	DeleteLink(ctx context.Context, tx *gorm.DB, itemID, stockID int64) (int64, error)
	FindByID(ctx context.Context, tx *gorm.DB, id int64) (*models.Item, error)
	List(ctx context.Context, tx *gorm.DB) ([]models.Item, error)
}

type reconciler interface {
	Reconcile(ctx context.Context) (capacity.Report, error)
}

// ServiceParams wires the item engine.
type ServiceParams struct {
	DB              db.TxRunner
	Repo            itemRepository
	Reconciler      reconciler
	IDs             idgen.Generator
	BarcodeLength   int
	DefaultCurrency enums.Currency
	Metrics         *metrics.InventoryMetrics
	Logger          *logger.Logger
}

type service struct {
	db              db.TxRunner
	repo            itemRepository
	reconciler      reconciler
	ids             idgen.Generator
	barcodeLength   int
	defaultCurrency enums.Currency
	metrics         *metrics.InventoryMetrics
	logg            *logger.Logger
	now             func() time.Time
}

// NewService constructs the item engine.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("capacity reconciler required")
	}
	if params.IDs == nil {
		return nil, fmt.Errorf("id generator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	barcodeLength := params.BarcodeLength
	if barcodeLength <= 0 {
		barcodeLength = idgen.BarcodeLength
	}
	currency := params.DefaultCurrency
	if currency == "" {
		currency = enums.DefaultCurrency
	}
	return &service{
		db:              params.DB,
		repo:            params.Repo,
		reconciler:      params.Reconciler,
		ids:             params.IDs,
		barcodeLength:   barcodeLength,
		defaultCurrency: currency,
		metrics:         params.Metrics,
		logg:            params.Logger,
		now:             func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (ImportResult, error) {
	results, err := s.CreateManyItems(ctx, []CreateItemInput{input})
	if len(results) == 0 {
		return ImportResult{}, err
	}
	return results[0], err
}

// CreateManyItems attempts every item inside its own savepoint of a single
// batch unit. Integrity violations decline the item and discard its rows;
// any other failure aborts the batch. Results follow input order. When the
// reconciliation after a committed batch fails, the results are returned
// together with that error.
func (s *service) CreateManyItems(ctx context.Context, inputs []CreateItemInput) ([]ImportResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	prepared := make([]models.Item, len(inputs))
	for i, input := range inputs {
		item, err := s.prepareItem(input)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item").
				WithDetails(map[string]any{"index": i, "article": input.Article})
		}
		prepared[i] = item
	}

	results := make([]ImportResult, len(inputs))
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range prepared {
			item := prepared[i]
			results[i] = ImportResult{Article: item.Article}

			attemptErr := tx.Transaction(func(sp *gorm.DB) error {
				if err := s.repo.CreateItem(ctx, sp, &item); err != nil {
					return err
				}
				return s.repo.CreateLinks(ctx, sp, item.Stocks)
			})
			switch {
			case attemptErr == nil:
				results[i].ID = item.ID
				results[i].Status = enums.ImportStatusImported
			case db.IsIntegrityViolation(attemptErr):
				results[i].Status = enums.ImportStatusDeclined
				results[i].Err = attemptErr.Error()
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, attemptErr, "db: import item").
					WithDetails(map[string]any{"index": i, "article": item.Article})
			}
		}
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "items.import_failed", err)
		return nil, err
	}

	imported, declined := 0, 0
	for _, res := range results {
		s.metrics.IncImport(res.Status.String())
		if res.Imported() {
			imported++
			continue
		}
		declined++
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"article": res.Article, "reason": res.Err}), "items.import_declined")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"imported": imported, "declined": declined}), "items.import_completed")

	if imported > 0 {
		if _, recErr := s.reconciler.Reconcile(ctx); recErr != nil {
			return results, recErr
		}
	}
	return results, nil
}

// UpdateItems sets allocation quantities in one unit. Entries matching no
// allocation change nothing and are only logged.
func (s *service) UpdateItems(ctx context.Context, updates []AllocationUpdate) (err error) {
	defer s.reconcileAfter(ctx, &err)

	for i, u := range updates {
		if u.ItemID == 0 || u.StockID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item_id and stock_id are required").WithDetails(map[string]any{"index": i})
		}
		if u.Remains < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "remains must be non-negative").WithDetails(map[string]any{"index": i})
		}
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		at := s.now()
		for _, u := range updates {
			rows, err := s.repo.UpdateLinkRemains(ctx, tx, u.ItemID, u.StockID, u.Remains, at)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update allocation")
			}
			if rows == 0 {
				s.noop(ctx, "update", u.ItemID, u.StockID)
			}
		}
		return nil
	})
}

// DeleteItems removes each named item from every stock it is allocated to,
// not only the stock named in the entry.
func (s *service) DeleteItems(ctx context.Context, refs []AllocationRef) (err error) {
	defer s.reconcileAfter(ctx, &err)

	if err := validateRefs(refs); err != nil {
		return err
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, ref := range refs {
			rows, err := s.repo.DeleteItem(ctx, tx, ref.ItemID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
			}
			if _, err := s.repo.DeleteLink(ctx, tx, ref.ItemID, ref.StockID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete allocation")
			}
			if rows == 0 {
				s.noop(ctx, "delete", ref.ItemID, ref.StockID)
			}
		}
		return nil
	})
}

// RemoveAllocations deletes only the named allocations; the items stay in the catalog.
func (s *service) RemoveAllocations(ctx context.Context, refs []AllocationRef) (err error) {
	defer s.reconcileAfter(ctx, &err)

	if err := validateRefs(refs); err != nil {
		return err
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, ref := range refs {
			rows, err := s.repo.DeleteLink(ctx, tx, ref.ItemID, ref.StockID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove allocation")
			}
			if rows == 0 {
				s.noop(ctx, "remove", ref.ItemID, ref.StockID)
			}
		}
		return nil
	})
}

func (s *service) GetItems(ctx context.Context) ([]ItemDTO, error) {
	var out []ItemDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.List(ctx, tx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list items")
		}
		out = make([]ItemDTO, 0, len(rows))
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

func (s *service) GetItem(ctx context.Context, id int64) (*ItemDTO, error) {
	var dto ItemDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
		}
		dto = FromModel(*item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// reconcileAfter runs a reconciliation pass whatever the mutation outcome and
// keeps both failures visible to the caller.
func (s *service) reconcileAfter(ctx context.Context, errp *error) {
	if _, recErr := s.reconciler.Reconcile(ctx); recErr != nil {
		*errp = multierr.Append(*errp, recErr)
	}
}

func (s *service) noop(ctx context.Context, operation string, itemID, stockID int64) {
	s.metrics.IncNoopWrite(operation)
	ctx = s.logg.WithItemID(s.logg.WithStockID(ctx, stockID), itemID)
	s.logg.Warn(s.logg.WithOperation(ctx, operation), "items.allocation_not_found")
}

func (s *service) prepareItem(input CreateItemInput) (models.Item, error) {
	article := strings.TrimSpace(input.Article)
	if article == "" {
		return models.Item{}, fmt.Errorf("article is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Item{}, fmt.Errorf("name is required")
	}
	if input.Price.IsNegative() {
		return models.Item{}, fmt.Errorf("price must be non-negative")
	}

	currency := s.defaultCurrency
	if strings.TrimSpace(input.CurrencyCode) != "" {
		parsed, err := enums.ParseCurrency(input.CurrencyCode)
		if err != nil {
			return models.Item{}, err
		}
		currency = parsed
	}

	barcode := strings.TrimSpace(input.Barcode)
	if barcode == "" {
		barcode = s.ids.Code(s.barcodeLength)
	}

	item := models.Item{
		ID:           s.ids.NextID(),
		Article:      article,
		Name:         name,
		Description:  input.Description,
		Price:        input.Price,
		CurrencyCode: currency.String(),
		Barcode:      barcode,
	}
	for _, alloc := range input.Allocations {
		if alloc.StockID == 0 {
			return models.Item{}, fmt.Errorf("stock_id is required")
		}
		if alloc.Remains < 0 {
			return models.Item{}, fmt.Errorf("remains must be non-negative")
		}
		item.Stocks = append(item.Stocks, models.ItemStockLink{
			ID:      s.ids.NextID(),
			ItemID:  item.ID,
			StockID: alloc.StockID,
			Remains: alloc.Remains,
		})
	}
	return item, nil
}

func validateRefs(refs []AllocationRef) error {
	for i, ref := range refs {
		if ref.ItemID == 0 || ref.StockID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item_id and stock_id are required").WithDetails(map[string]any{"index": i})
		}
	}
	return nil
}
