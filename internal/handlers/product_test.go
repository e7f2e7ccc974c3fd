package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/forneria/shop/internal/models"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func TestProductCreateJSON(t *testing.T) {
	db := newTestDB(t)
	cat, _, _, _ := seedCatalog(t, db)
	h := NewProductHandler(db)

	body := `{"name":"Hallulla","unit_price":600,"expiry_date":"2027-03-01",` +
		`"category_id":` + itoa(cat.ID) + `,"stock_current":30,"stock_min":5,"stock_max":80}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/products/new", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var got models.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == 0 {
		t.Fatal("product id not assigned")
	}
	if got.Kind != models.KindPropia {
		t.Fatalf("kind = %s, want default %s", got.Kind, models.KindPropia)
	}
	if got.NutritionProfileID == 0 {
		t.Fatal("nutrition profile not created alongside product")
	}
}

func TestProductCreateValidationJSON(t *testing.T) {
	db := newTestDB(t)
	h := NewProductHandler(db)

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/products/new", `{"name":""}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Fatalf("error = %s", resp.Error)
	}
	for _, field := range []string{"name", "unit_price", "expiry_date", "category"} {
		if resp.Details[field] == "" {
			t.Errorf("missing violation for %s (details %v)", field, resp.Details)
		}
	}
}

func TestProductUpdateJSON(t *testing.T) {
	db := newTestDB(t)
	cat, bread, _, _ := seedCatalog(t, db)
	h := NewProductHandler(db)

	body := `{"name":"Marraqueta Especial","unit_price":900,"expiry_date":"2027-03-01",` +
		`"category_id":` + itoa(cat.ID) + `,"stock_current":40,"stock_min":5,"stock_max":100}`
	rec := httptest.NewRecorder()
	h.Update(rec, jsonRequest(http.MethodPost, "/products/"+itoa(bread.ID)+"/edit", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var reloaded models.Product
	if err := db.First(&reloaded, bread.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "Marraqueta Especial" {
		t.Fatalf("name = %s", reloaded.Name)
	}
	if !reloaded.UnitPrice.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unit price = %s, want 900", reloaded.UnitPrice)
	}
}

func TestProductListJSON(t *testing.T) {
	db := newTestDB(t)
	cat, _, _, _ := seedCatalog(t, db)
	seedProduct(t, db, cat.ID, "Alfajor", 900, 40)
	h := NewProductHandler(db)

	req := jsonRequest(http.MethodGet, "/products?order=price", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Items []models.Product `json:"items"`
		Total int64            `json:"total"`
		Order string           `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}
	if resp.Order != "price" {
		t.Fatalf("order = %s", resp.Order)
	}
	if len(resp.Items) != 3 || resp.Items[0].Name != "Queque" {
		t.Fatalf("cheapest first expected, got %+v", names(resp.Items))
	}
}

func TestProductListSearchJSON(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	h := NewProductHandler(db)

	req := jsonRequest(http.MethodGet, "/products?search=marraq", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var resp struct {
		Items []models.Product `json:"items"`
		Total int64            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Name != "Marraqueta" {
		t.Fatalf("search result = %v", names(resp.Items))
	}
}

func TestProductDeleteProtectedJSON(t *testing.T) {
	db := newTestDB(t)
	_, bread, _, customer := seedCatalog(t, db)
	sale := models.Sale{CustomerID: customer.ID, Date: bread.ExpiryDate, Channel: models.ChannelLocal}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("create sale: %v", err)
	}
	line := models.SaleLine{SaleID: sale.ID, ProductID: bread.ID, Quantity: 1, UnitPrice: bread.UnitPrice}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("create line: %v", err)
	}
	h := NewProductHandler(db)

	rec := httptest.NewRecorder()
	h.Delete(rec, jsonRequest(http.MethodPost, "/products/"+itoa(bread.ID)+"/delete", ""))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
	var count int64
	db.Model(&models.Product{}).Where("id = ?", bread.ID).Count(&count)
	if count != 1 {
		t.Fatal("referenced product was deleted")
	}
}

func TestProductDeleteJSON(t *testing.T) {
	db := newTestDB(t)
	_, _, cake, _ := seedCatalog(t, db)
	h := NewProductHandler(db)

	rec := httptest.NewRecorder()
	h.Delete(rec, jsonRequest(http.MethodPost, "/products/"+itoa(cake.ID)+"/delete", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestProductDetailNotFound(t *testing.T) {
	db := newTestDB(t)
	h := NewProductHandler(db)

	rec := httptest.NewRecorder()
	h.Detail(rec, jsonRequest(http.MethodGet, "/products/9999", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}
