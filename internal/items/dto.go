package items

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seemyown/StockController/pkg/db/models"
	"github.com/seemyown/StockController/pkg/enums"
)

// AllocationInput is the initial quantity of a new item at one stock.
type AllocationInput struct {
	StockID int64 `json:"stock_id" validate:"required"`
	Remains int   `json:"remains" validate:"gte=0"`
}

// CreateItemInput describes one item to import. Barcode and currency are
// generated or defaulted when empty.
type CreateItemInput struct {
	Article      string            `json:"article" validate:"required"`
	Name         string            `json:"name" validate:"required"`
	Description  string            `json:"description"`
	Price        decimal.Decimal   `json:"price"`
	CurrencyCode string            `json:"currency_code"`
	Barcode      string            `json:"barcode"`
	Allocations  []AllocationInput `json:"stocks" validate:"dive"`
}

// AllocationUpdate sets the quantity of an existing item at one stock.
type AllocationUpdate struct {
	ItemID  int64 `json:"item_id" validate:"required"`
	StockID int64 `json:"stock_id" validate:"required"`
	Remains int   `json:"remains" validate:"gte=0"`
}

// AllocationRef names an item at one stock.
type AllocationRef struct {
	ItemID  int64 `json:"item_id" validate:"required"`
	StockID int64 `json:"stock_id" validate:"required"`
}

// ImportResult is the outcome of one import attempt. ID is zero for declined items.
type ImportResult struct {
	ID      int64              `json:"id"`
	Article string             `json:"article"`
	Status  enums.ImportStatus `json:"status"`
	Err     string             `json:"err"`
}

// Imported reports whether the attempt was committed.
func (r ImportResult) Imported() bool {
	return r.Status == enums.ImportStatusImported
}

// StockAllocationDTO is the quantity of an item held at one stock.
type StockAllocationDTO struct {
	StockID   int64     `json:"stock_id"`
	Remains   int       `json:"remains"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemDTO struct {
	ID           int64                `json:"id"`
	Article      string               `json:"article"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Price        decimal.Decimal      `json:"price"`
	CurrencyCode string               `json:"currency_code"`
	Barcode      string               `json:"barcode"`
	Remains      int                  `json:"remains"`
	Stocks       []StockAllocationDTO `json:"stocks"`
}

// FromModel maps an item with its preloaded allocations.
func FromModel(m models.Item) ItemDTO {
	stocks := make([]StockAllocationDTO, 0, len(m.Stocks))
	for _, link := range m.Stocks {
		stocks = append(stocks, StockAllocationDTO{
			StockID:   link.StockID,
			Remains:   link.Remains,
			UpdatedAt: link.DateUpdate,
		})
	}
	return ItemDTO{
		ID:           m.ID,
		Article:      m.Article,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		CurrencyCode: m.CurrencyCode,
		Barcode:      m.Barcode,
		Remains:      m.TotalRemains(),
		Stocks:       stocks,
	}
}
