package models

import "github.com/shopspring/decimal"

// Item is a catalog entry; article and barcode are unique across the catalog.
type Item struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	Article      string          `gorm:"column:article;not null"`
	Name         string          `gorm:"column:name;not null"`
	Description  string          `gorm:"column:description;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	CurrencyCode string          `gorm:"column:currency_code;not null"`
	Barcode      string          `gorm:"column:barcode;not null"`
	Stocks       []ItemStockLink `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (Item) TableName() string { return "items" }

// TotalRemains sums the quantities of every loaded allocation.
func (i Item) TotalRemains() int {
	total := 0
	for _, link := range i.Stocks {
		total += link.Remains
	}
	return total
}
