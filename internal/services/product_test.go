package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forneria/shop/internal/models"
)

func TestProductValidation(t *testing.T) {
	db := testDB(t)
	svc := NewProductService(db)

	prod := time.Now()
	expiryBefore := prod.Add(-24 * time.Hour)
	bad := models.Product{
		Name:           "",
		UnitPrice:      decimal.Zero,
		ProductionDate: &prod,
		ExpiryDate:     expiryBefore,
		StockCurrent:   -1,
		StockMin:       10,
		StockMax:       5,
		Kind:           "importado",
	}
	err := svc.Validate(&bad)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	for _, field := range []string{"name", "unit_price", "expiry_date", "stock_current", "stock_min", "kind", "category"} {
		assert.Contains(t, ve.Violations, field)
	}
}

func TestProductSaveCreatesNutritionProfile(t *testing.T) {
	db := testDB(t)
	svc := NewProductService(db)
	cat := models.Category{Name: "Pastelería"}
	require.NoError(t, db.Create(&cat).Error)

	p := models.Product{
		Name:       "Torta mil hojas",
		UnitPrice:  decimal.NewFromInt(12000),
		ExpiryDate: time.Now().Add(96 * time.Hour),
		CategoryID: cat.ID,
		StockMin:   2,
		StockMax:   10,
	}
	require.NoError(t, svc.Save(context.Background(), &p))
	assert.NotZero(t, p.ID)
	assert.NotZero(t, p.NutritionProfileID)
	assert.Equal(t, models.KindPropia, p.Kind, "kind defaults to propia")
}

func TestProductDeleteProtectedWhileReferenced(t *testing.T) {
	db := testDB(t)
	customer, bread, _ := seedCatalog(t, db)
	sales := NewSaleService(db)
	products := NewProductService(db)

	_, err := sales.Save(context.Background(), SaleInput{
		CustomerID: customer.ID,
		Lines:      []LineInput{{ProductID: bread.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	err = products.Delete(context.Background(), bread.ID)
	assert.ErrorIs(t, err, ErrIntegrity)

	// Product must remain.
	var count int64
	db.Model(&models.Product{}).Where("id = ?", bread.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestProductDeleteWhenUnreferenced(t *testing.T) {
	db := testDB(t)
	_, _, cake := seedCatalog(t, db)
	products := NewProductService(db)

	require.NoError(t, products.Delete(context.Background(), cake.ID))
	_, err := products.Get(context.Background(), cake.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = products.Delete(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerDeleteProtectedWhileReferenced(t *testing.T) {
	db := testDB(t)
	customer, bread, _ := seedCatalog(t, db)
	sales := NewSaleService(db)
	customers := NewCustomerService(db)

	_, err := sales.Save(context.Background(), SaleInput{
		CustomerID: customer.ID,
		Lines:      []LineInput{{ProductID: bread.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, customers.Delete(context.Background(), customer.ID), ErrIntegrity)
}

func TestCustomerRUTUniqueness(t *testing.T) {
	db := testDB(t)
	customers := NewCustomerService(db)

	rut := "12.345.678-9"
	first := models.Customer{Name: "Ana", RUT: &rut}
	require.NoError(t, customers.Save(context.Background(), &first))

	dup := models.Customer{Name: "Otra Ana", RUT: &rut}
	err := customers.Save(context.Background(), &dup)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Violations, "rut")

	// Updating the same customer keeps its own RUT.
	first.Email = "ana@forneria.cl"
	require.NoError(t, customers.Save(context.Background(), &first))
}
