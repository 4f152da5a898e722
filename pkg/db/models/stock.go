package models

import "time"

// Stock is a warehouse with a generated short code.
type Stock struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	Code       string          `gorm:"column:code;not null"`
	Name       string          `gorm:"column:name;not null"`
	CityID     int64           `gorm:"column:city_id;not null"`
	City       *City           `gorm:"foreignKey:CityID"`
	Capacities []StockCapacity `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE"`
	Items      []ItemStockLink `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE"`
}

func (Stock) TableName() string { return "stocks" }

// StockInfo is the derived capacity view of a stock.
type StockInfo struct {
	Remains   int
	Capacity  int
	FreeSpace float64
	UpdatedAt *time.Time
}

// CityName returns the loaded city's name, or an empty string when the city was not preloaded.
func (s Stock) CityName() string {
	if s.City == nil {
		return ""
	}
	return s.City.Name
}

// CurrentCapacity returns the most recently updated capacity record, if any were loaded.
func (s Stock) CurrentCapacity() *StockCapacity {
	var current *StockCapacity
	for i := range s.Capacities {
		c := &s.Capacities[i]
		if current == nil || c.DateUpdate.After(current.DateUpdate) {
			current = c
		}
	}
	return current
}

// Info summarizes the current capacity record. A stock without one reports zeroes.
func (s Stock) Info() StockInfo {
	current := s.CurrentCapacity()
	if current == nil {
		return StockInfo{}
	}
	updated := current.DateUpdate
	return StockInfo{
		Remains:   current.Remains,
		Capacity:  current.Capacity,
		FreeSpace: current.FreePercent,
		UpdatedAt: &updated,
	}
}
