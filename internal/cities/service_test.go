package cities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/db/dbtest"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(client, NewRepository(client.DB()))
	require.NoError(t, err)
	return svc, client
}

func names(list []CityDTO) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}

func TestTitleCase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"par", "Par"},
		{"  par ", "Par"},
		{"new york", "New York"},
		{"nEW", "NEW"},
		{"", ""},
		{"санкт", "Санкт"},
	}
	for _, tc := range cases {
		if got := TitleCase(tc.in); got != tc.want {
			t.Fatalf("TitleCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSearchCitiesMatchesPrefixOnly(t *testing.T) {
	svc, client := newTestService(t)
	dbtest.SeedCity(t, client, 1, "Paris")
	dbtest.SeedCity(t, client, 2, "Sparta")
	dbtest.SeedCity(t, client, 3, "Parma")

	got, err := svc.SearchCities(context.Background(), "par")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Paris", "Parma"}, names(got))

	got, err = svc.SearchCities(context.Background(), "PAR")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Paris", "Parma"}, names(got))

	got, err = svc.SearchCities(context.Background(), "par%")
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = svc.SearchCities(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestSearchCitiesCyrillicPrefixOnSQLite(t *testing.T) {
	svc, client := newTestService(t)
	dbtest.SeedCity(t, client, 1, "Москва")
	dbtest.SeedCity(t, client, 2, "Казань")

	got, err := svc.SearchCities(context.Background(), "мос")
	require.NoError(t, err)
	require.Equal(t, []string{"Москва"}, names(got))

	// sqlite LOWER() leaves non-ASCII letters untouched
	got, err = svc.SearchCities(context.Background(), "МОС")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestListCitiesExtendedIncludesStocks(t *testing.T) {
	svc, client := newTestService(t)
	dbtest.SeedCity(t, client, 1, "Moscow")
	dbtest.SeedCity(t, client, 2, "Kazan")
	dbtest.SeedStock(t, client, 10, 1, "MSK00001", "Central", 300)

	flat, err := svc.ListCities(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, flat, 2)
	for _, c := range flat {
		require.Empty(t, c.Stocks)
	}

	extended, err := svc.ListCities(context.Background(), true)
	require.NoError(t, err)
	byName := map[string]CityDTO{}
	for _, c := range extended {
		byName[c.Name] = c
	}
	require.Len(t, byName["Moscow"].Stocks, 1)
	stock := byName["Moscow"].Stocks[0]
	require.Equal(t, "Central", stock.Name)
	require.Equal(t, "Moscow", stock.City)
	require.Equal(t, 300, stock.Info.Capacity)
	require.Empty(t, byName["Kazan"].Stocks)
}

func TestGetCityByName(t *testing.T) {
	svc, client := newTestService(t)
	dbtest.SeedCity(t, client, 7, "Omsk")

	city, err := svc.GetCityByName(context.Background(), "Omsk")
	require.NoError(t, err)
	require.Equal(t, int64(7), city.ID)

	_, err = svc.GetCityByName(context.Background(), "omsk")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
