package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forneria/shop/internal/models"
)

func TestSaleCreateJSON(t *testing.T) {
	db := newTestDB(t)
	_, bread, cake, customer := seedCatalog(t, db)
	h := NewSaleHandler(db)

	body := `{"customer_id":` + itoa(customer.ID) + `,"channel":"Local","lines":[` +
		`{"product_id":` + itoa(bread.ID) + `,"quantity":3},` +
		`{"product_id":` + itoa(cake.ID) + `,"quantity":2}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/sales/new", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var got models.Sale
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Folio != "VENT-00001" {
		t.Fatalf("folio = %s, want VENT-00001", got.Folio)
	}
	// 3x800 + 2x600 = 3600, IVA 684, total 4284
	if !got.Subtotal.Equal(decimal.NewFromInt(3600)) {
		t.Fatalf("subtotal = %s, want 3600", got.Subtotal)
	}
	if !got.Tax.Equal(decimal.NewFromInt(684)) {
		t.Fatalf("tax = %s, want 684", got.Tax)
	}
	if !got.Total.Equal(decimal.NewFromInt(4284)) {
		t.Fatalf("total = %s, want 4284", got.Total)
	}
	if !got.Change.IsZero() {
		t.Fatalf("change = %s, want 0 when amount paid omitted", got.Change)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(got.Lines))
	}
}

func TestSaleCreateRejectsUnknownChannel(t *testing.T) {
	db := newTestDB(t)
	_, bread, _, customer := seedCatalog(t, db)
	h := NewSaleHandler(db)

	body := `{"customer_id":` + itoa(customer.ID) + `,"channel":"Telegram","lines":[` +
		`{"product_id":` + itoa(bread.ID) + `,"quantity":1}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/sales/new", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatal("rejected sale was persisted")
	}
}

func TestSaleUpdateReplacesLines(t *testing.T) {
	db := newTestDB(t)
	_, bread, cake, customer := seedCatalog(t, db)
	h := NewSaleHandler(db)

	body := `{"customer_id":` + itoa(customer.ID) + `,"lines":[` +
		`{"product_id":` + itoa(bread.ID) + `,"quantity":3},` +
		`{"product_id":` + itoa(cake.ID) + `,"quantity":2}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/sales/new", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var created models.Sale
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var cakeLine models.SaleLine
	if err := db.Where("sale_id = ? AND product_id = ?", created.ID, cake.ID).First(&cakeLine).Error; err != nil {
		t.Fatalf("load cake line: %v", err)
	}

	update := `{"customer_id":` + itoa(customer.ID) + `,"lines":[` +
		`{"id":` + itoa(cakeLine.ID) + `,"delete":true}]}`
	rec = httptest.NewRecorder()
	h.Update(rec, jsonRequest(http.MethodPost, "/sales/"+itoa(created.ID)+"/edit", update))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var got models.Sale
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Folio != created.Folio {
		t.Fatalf("folio changed on edit: %s -> %s", created.Folio, got.Folio)
	}
	// Only 3x800 remain: 2400 + 456 IVA
	if !got.Total.Equal(decimal.NewFromInt(2856)) {
		t.Fatalf("total = %s, want 2856", got.Total)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(got.Lines))
	}
}

func TestSaleListChannelFilterJSON(t *testing.T) {
	db := newTestDB(t)
	_, _, _, customer := seedCatalog(t, db)
	now := time.Now()
	for _, ch := range []string{models.ChannelLocal, models.ChannelInstagram} {
		s := models.Sale{CustomerID: customer.ID, Date: now, Channel: ch, Folio: "VENT-F" + ch}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}
	h := NewSaleHandler(db)

	rec := httptest.NewRecorder()
	h.List(rec, jsonRequest(http.MethodGet, "/sales?channel=Local", ""))

	var resp struct {
		Items []models.Sale `json:"items"`
		Total int64         `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Channel != models.ChannelLocal {
		t.Fatalf("filter result = %+v", resp)
	}
}

func TestSaleListDateRangeJSON(t *testing.T) {
	db := newTestDB(t)
	_, _, _, customer := seedCatalog(t, db)
	old := models.Sale{CustomerID: customer.ID, Date: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), Folio: "VENT-OLD"}
	recent := models.Sale{CustomerID: customer.ID, Date: time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC), Folio: "VENT-NEW"}
	for _, s := range []*models.Sale{&old, &recent} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}
	h := NewSaleHandler(db)

	rec := httptest.NewRecorder()
	h.List(rec, jsonRequest(http.MethodGet, "/sales?date_from=2026-06-01&date_to=10/06/2026", ""))

	var resp struct {
		Items []models.Sale `json:"items"`
		Total int64         `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Folio != "VENT-NEW" {
		t.Fatalf("date filter result = %+v", resp)
	}
}

func TestSaleDeleteJSON(t *testing.T) {
	db := newTestDB(t)
	_, bread, _, customer := seedCatalog(t, db)
	h := NewSaleHandler(db)

	body := `{"customer_id":` + itoa(customer.ID) + `,"lines":[` +
		`{"product_id":` + itoa(bread.ID) + `,"quantity":1}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/sales/new", body))
	var created models.Sale
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, jsonRequest(http.MethodPost, "/sales/"+itoa(created.ID)+"/delete", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	var lines int64
	db.Model(&models.SaleLine{}).Where("sale_id = ?", created.ID).Count(&lines)
	if lines != 0 {
		t.Fatalf("orphan lines = %d", lines)
	}
	rec = httptest.NewRecorder()
	h.Detail(rec, jsonRequest(http.MethodGet, "/sales/"+itoa(created.ID), ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("detail status = %d, want 404 after delete", rec.Code)
	}
}
