package cities

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/db/models"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
)

// Service exposes the city directory.
type Service interface {
	ListCities(ctx context.Context, extended bool) ([]CityDTO, error)
	SearchCities(ctx context.Context, prefix string) ([]CityDTO, error)
	GetCityByName(ctx context.Context, name string) (*CityDTO, error)
}

type cityRepository interface {
	List(ctx context.Context, tx *gorm.DB, withStocks bool) ([]models.City, error)
	SearchByPrefix(ctx context.Context, tx *gorm.DB, prefix string) ([]models.City, error)
	FindByName(ctx context.Context, tx *gorm.DB, name string) (*models.City, error)
}

type service struct {
	db   db.TxRunner
	repo cityRepository
}

func NewService(txRunner db.TxRunner, repo cityRepository) (Service, error) {
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("city repository required")
	}
	return &service{db: txRunner, repo: repo}, nil
}

// TitleCase upper-cases the first letter of every word and keeps the rest as typed.
func TitleCase(query string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(query))
}

func (s *service) ListCities(ctx context.Context, extended bool) ([]CityDTO, error) {
	var out []CityDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.List(ctx, tx, extended)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cities")
		}
		out = toDTOs(rows, extended)
		return nil
	})
	return out, err
}

func (s *service) SearchCities(ctx context.Context, prefix string) ([]CityDTO, error) {
	var out []CityDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.SearchByPrefix(ctx, tx, TitleCase(prefix))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search cities")
		}
		out = toDTOs(rows, false)
		return nil
	})
	return out, err
}

func (s *service) GetCityByName(ctx context.Context, name string) (*CityDTO, error) {
	var out *CityDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		city, err := s.repo.FindByName(ctx, tx, strings.TrimSpace(name))
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "city not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find city")
		}
		dto := FromModel(*city, false)
		out = &dto
		return nil
	})
	return out, err
}

func toDTOs(rows []models.City, extended bool) []CityDTO {
	out := make([]CityDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row, extended))
	}
	return out
}
