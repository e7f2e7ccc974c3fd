package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/forneria/shop/internal/export"
	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/listing"
	"github.com/forneria/shop/internal/middleware"
	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/services"
)

// saleOrders is the sort whitelist of the sale listing, defaulting to
// newest sales first.
var saleOrders = listing.Whitelist{
	Default: "-date",
	Columns: map[string]string{
		"date":  "sales.date",
		"total": "sales.total",
	},
}

type SaleHandler struct {
	DB      *gorm.DB
	Service *services.SaleService
}

func NewSaleHandler(db *gorm.DB) *SaleHandler {
	return &SaleHandler{DB: db, Service: services.NewSaleService(db)}
}

// List handles GET /sales: folio/customer search, channel and date-range
// filters, whitelisted sort, pagination, xlsx export. An unparseable date
// drops that filter with a warning flash instead of failing the request.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Model(&models.Sale{}).Preload("Customer").
		Joins("LEFT JOIN customers ON customers.id = sales.customer_id")

	search := listing.Search(r)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("lower(sales.folio) LIKE ? OR lower(customers.name) LIKE ? OR lower(customers.email) LIKE ?",
			like, like, like)
	}
	if channel := strings.TrimSpace(r.URL.Query().Get("channel")); channel != "" {
		q = q.Where("sales.channel = ?", channel)
	}
	if raw := r.URL.Query().Get("date_from"); raw != "" {
		if d, ok := listing.ParseDate(raw); ok {
			q = q.Where("sales.date >= ?", d)
		} else {
			middleware.Flash(w, r, "invalid_date_filter")
		}
	}
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		if d, ok := listing.ParseDate(raw); ok {
			q = q.Where("sales.date <= ?", listing.EndOfDay(d))
		} else {
			middleware.Flash(w, r, "invalid_date_filter")
		}
	}

	orderParam, orderClause := saleOrders.Resolve(r.URL.Query().Get("order"))
	q = q.Order(orderClause)

	if r.URL.Query().Get("export") == "xlsx" {
		var sales []models.Sale
		if err := q.Find(&sales).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
			return
		}
		f, err := export.SalesWorkbook(sales)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
			return
		}
		if err := export.Serve(w, f, export.Filename("ventas", time.Now())); err != nil {
			_ = err
		}
		return
	}

	perPage := middleware.PageSize(w, r, "sales")
	page, err := listing.Paginate[models.Sale](q, listing.PageNumber(r), perPage)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sales", nil)
		return
	}

	if wantsHTML(r) {
		renderTemplate(w, r, "sales/list", map[string]any{
			"Page":     page,
			"Search":   search,
			"Order":    orderParam,
			"Channels": models.Channels(),
			"PerPage":  perPage,
			"Choices":  middleware.PageSizeChoices,
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":    page.Items,
		"total":    page.Total,
		"page":     page.Number,
		"pages":    page.TotalPages,
		"per_page": perPage,
		"order":    orderParam,
	})
}

// Detail handles GET /sales/{id}.
func (h *SaleHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/sales")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	sale, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		renderTemplate(w, r, "sales/detail", map[string]any{"Sale": sale})
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

type saleLinePayload struct {
	ID          uint             `json:"id"`
	ProductID   uint             `json:"product_id"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
	Delete      bool             `json:"delete"`
}

type salePayload struct {
	CustomerID uint              `json:"customer_id"`
	Date       string            `json:"date"`
	Channel    string            `json:"channel"`
	Discount   decimal.Decimal   `json:"discount"`
	AmountPaid *decimal.Decimal  `json:"amount_paid"`
	Lines      []saleLinePayload `json:"lines"`
}

func (p salePayload) input(id uint) services.SaleInput {
	in := services.SaleInput{
		ID:         id,
		CustomerID: p.CustomerID,
		Channel:    p.Channel,
		Discount:   p.Discount,
		AmountPaid: p.AmountPaid,
	}
	if d, ok := listing.ParseDate(p.Date); ok {
		in.Date = d
	} else if t, err := time.Parse(time.RFC3339, p.Date); err == nil {
		in.Date = t
	}
	for _, l := range p.Lines {
		in.Lines = append(in.Lines, services.LineInput{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			Delete:      l.Delete,
		})
	}
	return in
}

// Create handles GET (form) and POST /sales/new. The POST body is JSON:
// header fields plus the full line set.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderForm(w, r, nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	h.save(w, r, 0)
}

// Update handles GET (form) and POST /sales/{id}/edit.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/sales")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if r.Method == http.MethodGet {
		sale, err := h.Service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		h.renderForm(w, r, sale)
		return
	}
	h.save(w, r, id)
}

func (h *SaleHandler) renderForm(w http.ResponseWriter, r *http.Request, sale *models.Sale) {
	var customers []models.Customer
	var products []models.Product
	h.DB.Order("name").Find(&customers)
	h.DB.Order("name").Find(&products)
	renderTemplate(w, r, "sales/form", map[string]any{
		"Sale":      sale,
		"Customers": customers,
		"Products":  products,
		"Channels":  models.Channels(),
	})
}

func (h *SaleHandler) save(w http.ResponseWriter, r *http.Request, id uint) {
	var payload salePayload
	if err := decodeJSON(r, &payload); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	sale, err := h.Service.Save(r.Context(), payload.input(id))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		if id == 0 {
			middleware.Flash(w, r, "sale_created")
		} else {
			middleware.Flash(w, r, "sale_updated")
		}
		http.Redirect(w, r, safeNext(r, "/sales"), statusSeeOther)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, sale)
}

// Delete handles POST /sales/{id}/delete; lines are removed with the
// sale in one transaction.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		if wantsHTML(r) {
			middleware.Flash(w, r, "confirm_delete")
			http.Redirect(w, r, safeNext(r, "/sales"), statusSeeOther)
			return
		}
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := idFromPath(r.URL.Path, "/sales")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		middleware.Flash(w, r, "sale_deleted")
		http.Redirect(w, r, safeNext(r, "/sales"), statusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}
