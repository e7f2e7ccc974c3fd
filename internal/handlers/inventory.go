package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/listing"
	"github.com/forneria/shop/internal/middleware"
	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/services"
)

type InventoryHandler struct {
	DB      *gorm.DB
	Service *services.InventoryService
}

func NewInventoryHandler(db *gorm.DB) *InventoryHandler {
	return &InventoryHandler{DB: db, Service: services.NewInventoryService(db)}
}

// Movements handles GET (list) and POST (record) /inventory/movements.
func (h *InventoryHandler) Movements(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.recordMovement(w, r)
		return
	}

	q := h.DB.Model(&models.StockMovement{}).Preload("Product").Order("date DESC")
	if pid := formUintQuery(r, "product"); pid != 0 {
		q = q.Where("product_id = ?", pid)
	}
	if mt := r.URL.Query().Get("type"); mt != "" {
		q = q.Where("type = ?", mt)
	}

	perPage := middleware.PageSize(w, r, "movements")
	page, err := listing.Paginate[models.StockMovement](q, listing.PageNumber(r), perPage)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_movements", nil)
		return
	}
	if wantsHTML(r) {
		renderTemplate(w, r, "inventory/movements", map[string]any{"Page": page})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": page.Items,
		"total": page.Total,
		"page":  page.Number,
		"pages": page.TotalPages,
	})
}

func (h *InventoryHandler) recordMovement(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID uint   `json:"product_id"`
		Type      string `json:"type"`
		Quantity  int    `json:"quantity"`
		Date      string `json:"date"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	movement := models.StockMovement{
		ProductID: payload.ProductID,
		Type:      payload.Type,
		Quantity:  payload.Quantity,
	}
	if d, ok := listing.ParseDate(payload.Date); ok {
		movement.Date = d
	}
	if err := h.Service.RecordMovement(r.Context(), &movement); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

// Alerts handles GET /alerts: pending first, newest first.
func (h *InventoryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Model(&models.Alert{}).Preload("Product").
		Order("CASE state WHEN 'pendiente' THEN 0 ELSE 1 END, generated_at DESC")
	if state := r.URL.Query().Get("state"); state != "" {
		q = q.Where("state = ?", state)
	}
	if at := r.URL.Query().Get("type"); at != "" {
		q = q.Where("type = ?", at)
	}

	perPage := middleware.PageSize(w, r, "alerts")
	page, err := listing.Paginate[models.Alert](q, listing.PageNumber(r), perPage)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_alerts", nil)
		return
	}
	if wantsHTML(r) {
		renderTemplate(w, r, "inventory/alerts", map[string]any{"Page": page})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": page.Items,
		"total": page.Total,
		"page":  page.Number,
		"pages": page.TotalPages,
	})
}

// AttendAlert handles POST /alerts/{id}/attend.
func (h *InventoryHandler) AttendAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := idFromPath(r.URL.Path, "/alerts")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.Service.AttendAlert(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		middleware.Flash(w, r, "alert_attended")
		http.Redirect(w, r, safeNext(r, "/alerts"), statusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"attended": id})
}
