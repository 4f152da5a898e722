// Package dbtest opens throwaway sqlite databases carrying the real schema.
package dbtest

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/db/models"
	"github.com/seemyown/StockController/pkg/migrate"
)

// Open returns a client bound to a fresh in-memory database with every migration applied.
func Open(t *testing.T) *db.Client {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db.NewFromConn(conn, config.DBDriverSQLite)
}

// SeedCity inserts a city row directly; cities are administrative data.
func SeedCity(t *testing.T, client *db.Client, id int64, name string) models.City {
	t.Helper()
	city := models.City{ID: id, Name: name, Latitude: 55.75, Longitude: 37.62}
	if err := client.DB().Create(&city).Error; err != nil {
		t.Fatalf("seed city %q: %v", name, err)
	}
	return city
}

// SeedStock inserts a stock with one capacity record.
func SeedStock(t *testing.T, client *db.Client, id, cityID int64, code, name string, capacity int) models.Stock {
	t.Helper()
	stock := models.Stock{ID: id, Code: code, Name: name, CityID: cityID}
	if err := client.DB().Create(&stock).Error; err != nil {
		t.Fatalf("seed stock %q: %v", name, err)
	}
	capRow := models.StockCapacity{ID: id + 1_000_000, StockID: id, Capacity: capacity, FreePercent: 100}
	if err := client.DB().Create(&capRow).Error; err != nil {
		t.Fatalf("seed stock capacity %q: %v", name, err)
	}
	return stock
}
