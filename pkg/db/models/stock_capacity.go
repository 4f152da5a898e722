package models

import "time"

// StockCapacity records how many units a stock holds against its declared limit.
// Remains is a cache of the allocation totals and is rewritten by reconciliation.
type StockCapacity struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	StockID     int64     `gorm:"column:stock_id;not null"`
	Remains     int       `gorm:"column:remains;not null;default:0"`
	Capacity    int       `gorm:"column:capacity;not null"`
	FreePercent float64   `gorm:"column:free_percent;not null;default:100"`
	DateUpdate  time.Time `gorm:"column:date_update;autoUpdateTime"`
}

func (StockCapacity) TableName() string { return "stocks_capacity" }
