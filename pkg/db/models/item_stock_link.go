package models

import "time"

// ItemStockLink is the allocation of an item's units to one stock.
// At most one link exists per (item, stock) pair.
type ItemStockLink struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	ItemID     int64     `gorm:"column:item_id;not null"`
	StockID    int64     `gorm:"column:stock_id;not null"`
	Remains    int       `gorm:"column:remains;not null;default:0"`
	DateUpdate time.Time `gorm:"column:date_update;autoUpdateTime"`
	Item       *Item     `gorm:"foreignKey:ItemID"`
	Stock      *Stock    `gorm:"foreignKey:StockID"`
}

func (ItemStockLink) TableName() string { return "items_stocks" }
