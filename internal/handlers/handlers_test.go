package handlers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forneria/shop/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Permission{}, &models.Profile{}, &models.User{},
		&models.Category{}, &models.NutritionProfile{}, &models.Product{},
		&models.Customer{}, &models.Sale{}, &models.SaleLine{},
		&models.StockMovement{}, &models.Alert{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedCatalog creates a category, two products and a customer.
func seedCatalog(t *testing.T, db *gorm.DB) (models.Category, models.Product, models.Product, models.Customer) {
	t.Helper()
	cat := models.Category{Name: "Pan"}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	bread := seedProduct(t, db, cat.ID, "Marraqueta", 800, 50)
	cake := seedProduct(t, db, cat.ID, "Queque", 600, 20)
	customer := models.Customer{Name: "María Pérez", Email: "maria@example.com"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return cat, bread, cake, customer
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, name string, price int64, stock int) models.Product {
	t.Helper()
	nut := models.NutritionProfile{}
	if err := db.Create(&nut).Error; err != nil {
		t.Fatalf("create nutrition profile: %v", err)
	}
	p := models.Product{
		Name: name, UnitPrice: decimal.NewFromInt(price),
		ExpiryDate: time.Now().Add(48 * time.Hour), Kind: models.KindPropia,
		CategoryID: categoryID, NutritionProfileID: nut.ID,
		StockCurrent: stock, StockMin: 5, StockMax: 100,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}
