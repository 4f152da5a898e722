package cities

import (
	"github.com/seemyown/StockController/internal/stocks"
	"github.com/seemyown/StockController/pkg/db/models"
)

// CityDTO is a city, optionally with its stocks when the listing is extended.
type CityDTO struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Stocks    []stocks.StockDTO `json:"stocks,omitempty"`
}

func FromModel(m models.City, withStocks bool) CityDTO {
	dto := CityDTO{
		ID:        m.ID,
		Name:      m.Name,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
	}
	if withStocks {
		dto.Stocks = make([]stocks.StockDTO, 0, len(m.Stocks))
		for _, stock := range m.Stocks {
			if stock.City == nil {
				city := m
				city.Stocks = nil
				stock.City = &city
			}
			dto.Stocks = append(dto.Stocks, stocks.FromModel(stock))
		}
	}
	return dto
}
