package stocks

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seemyown/StockController/pkg/db/models"
)

// CreateStockInput describes a new warehouse. CityName is resolved when CityID is zero.
type CreateStockInput struct {
	Name     string
	CityID   int64
	CityName string
	Capacity int
}

// InfoDTO is the derived capacity view of a stock.
type InfoDTO struct {
	Remains   int        `json:"remains"`
	Capacity  int        `json:"capacity"`
	FreeSpace float64    `json:"free_space"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// StockDTO is the flat representation used by listings.
type StockDTO struct {
	ID     int64   `json:"id"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	CityID int64   `json:"city_id"`
	City   string  `json:"city,omitempty"`
	Info   InfoDTO `json:"info"`
}

// AllocationDTO is one item's quantity held at the stock.
type AllocationDTO struct {
	ItemID       int64           `json:"item_id"`
	Article      string          `json:"article"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	CurrencyCode string          `json:"currency_code"`
	Remains      int             `json:"remains"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockDetailDTO adds every allocation to the flat view.
type StockDetailDTO struct {
	StockDTO
	Items []AllocationDTO `json:"items"`
}

// FromModel maps a stock with its preloaded city and capacity rows.
func FromModel(m models.Stock) StockDTO {
	info := m.Info()
	return StockDTO{
		ID:     m.ID,
		Code:   m.Code,
		Name:   m.Name,
		CityID: m.CityID,
		City:   m.CityName(),
		Info: InfoDTO{
			Remains:   info.Remains,
			Capacity:  info.Capacity,
			FreeSpace: info.FreeSpace,
			UpdatedAt: info.UpdatedAt,
		},
	}
}

// DetailFromModel maps a stock whose links and their items were preloaded.
func DetailFromModel(m models.Stock) StockDetailDTO {
	items := make([]AllocationDTO, 0, len(m.Items))
	for _, link := range m.Items {
		alloc := AllocationDTO{
			ItemID:    link.ItemID,
			Remains:   link.Remains,
			UpdatedAt: link.DateUpdate,
		}
		if link.Item != nil {
			alloc.Article = link.Item.Article
			alloc.Name = link.Item.Name
			alloc.Price = link.Item.Price
			alloc.CurrencyCode = link.Item.CurrencyCode
		}
		items = append(items, alloc)
	}
	return StockDetailDTO{StockDTO: FromModel(m), Items: items}
}
