package handlers

import (
	"net/http"
	"strconv"
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

// productOrders is the sort whitelist of the product listing.
// Unrecognized values fall back to newest-first.
var productOrders = listing.Whitelist{
	Default: "-created",
	Columns: map[string]string{
		"name":    "products.name",
		"price":   "products.unit_price",
		"stock":   "products.stock_current",
		"created": "products.created_at",
	},
}

type ProductHandler struct {
	DB      *gorm.DB
	Service *services.ProductService
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db, Service: services.NewProductService(db)}
}

// List handles GET /products: search, category/kind filter, whitelisted
// sort, pagination, xlsx export.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Model(&models.Product{}).Preload("Category")

	search := listing.Search(r)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Joins("LEFT JOIN categories ON categories.id = products.category_id").
			Where("lower(products.name) LIKE ? OR lower(products.brand) LIKE ? OR lower(products.description) LIKE ? OR lower(categories.name) LIKE ?",
				like, like, like, like)
	}
	if cat := formUintQuery(r, "category"); cat != 0 {
		q = q.Where("products.category_id = ?", cat)
	}
	if kind := strings.TrimSpace(r.URL.Query().Get("kind")); kind != "" {
		q = q.Where("lower(products.kind) = ?", strings.ToLower(kind))
	}

	orderParam, orderClause := productOrders.Resolve(r.URL.Query().Get("order"))
	q = q.Order(orderClause)

	if r.URL.Query().Get("export") == "xlsx" {
		var products []models.Product
		if err := q.Find(&products).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
			return
		}
		f, err := export.ProductsWorkbook(products)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
			return
		}
		if err := export.Serve(w, f, export.Filename("productos", time.Now())); err != nil {
			_ = err
		}
		return
	}

	perPage := middleware.PageSize(w, r, "products")
	page, err := listing.Paginate[models.Product](q, listing.PageNumber(r), perPage)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}

	if wantsHTML(r) {
		var categories []models.Category
		h.DB.Order("name").Find(&categories)
		renderTemplate(w, r, "products/list", map[string]any{
			"Page":       page,
			"Search":     search,
			"Order":      orderParam,
			"Categories": categories,
			"PerPage":    perPage,
			"Choices":    middleware.PageSizeChoices,
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

// Detail handles GET /products/{id}.
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/products")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	product, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		renderTemplate(w, r, "products/detail", map[string]any{"Product": product})
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

type productPayload struct {
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	Description    string          `json:"description"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ExpiryDate     string          `json:"expiry_date"`
	ProductionDate string          `json:"production_date"`
	Kind           string          `json:"kind"`
	CategoryID     uint            `json:"category_id"`
	StockCurrent   int             `json:"stock_current"`
	StockMin       int             `json:"stock_min"`
	StockMax       int             `json:"stock_max"`
	Presentation   string          `json:"presentation"`
	Format         string          `json:"format"`
}

func (p productPayload) apply(dst *models.Product) {
	dst.Name = strings.TrimSpace(p.Name)
	dst.Brand = strings.TrimSpace(p.Brand)
	dst.Description = strings.TrimSpace(p.Description)
	dst.UnitPrice = p.UnitPrice
	dst.Kind = p.Kind
	dst.CategoryID = p.CategoryID
	dst.StockCurrent = p.StockCurrent
	dst.StockMin = p.StockMin
	dst.StockMax = p.StockMax
	dst.Presentation = strings.TrimSpace(p.Presentation)
	dst.Format = strings.TrimSpace(p.Format)
	if d, ok := listing.ParseDate(p.ExpiryDate); ok {
		dst.ExpiryDate = d
	}
	if d, ok := listing.ParseDate(p.ProductionDate); ok {
		dst.ProductionDate = &d
	} else if strings.TrimSpace(p.ProductionDate) == "" {
		dst.ProductionDate = nil
	}
}

func productFromForm(r *http.Request) productPayload {
	return productPayload{
		Name:           r.FormValue("name"),
		Brand:          r.FormValue("brand"),
		Description:    r.FormValue("description"),
		UnitPrice:      formDecimal(r, "unit_price"),
		ExpiryDate:     r.FormValue("expiry_date"),
		ProductionDate: r.FormValue("production_date"),
		Kind:           r.FormValue("kind"),
		CategoryID:     formUint(r, "category_id"),
		StockCurrent:   formInt(r, "stock_current"),
		StockMin:       formInt(r, "stock_min"),
		StockMax:       formInt(r, "stock_max"),
		Presentation:   r.FormValue("presentation"),
		Format:         r.FormValue("format"),
	}
}

// Create handles GET (form) and POST /products/new.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		var categories []models.Category
		h.DB.Order("name").Find(&categories)
		renderTemplate(w, r, "products/form", map[string]any{"Categories": categories})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	h.save(w, r, &models.Product{})
}

// Update handles GET (form) and POST /products/{id}/edit.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/products")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	product, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if r.Method == http.MethodGet {
		var categories []models.Category
		h.DB.Order("name").Find(&categories)
		renderTemplate(w, r, "products/form", map[string]any{"Product": product, "Categories": categories})
		return
	}
	h.save(w, r, product)
}

func (h *ProductHandler) save(w http.ResponseWriter, r *http.Request, product *models.Product) {
	var payload productPayload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &payload); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		payload = productFromForm(r)
	}
	created := product.ID == 0
	payload.apply(product)

	if err := h.Service.Save(r.Context(), product); err != nil {
		if ve, ok := services.AsValidation(err); ok && wantsHTML(r) {
			middleware.Flash(w, r, "check_form")
			w.WriteHeader(http.StatusBadRequest)
			renderTemplate(w, r, "products/form", map[string]any{
				"Product": product,
				"Errors":  translated(r, ve.Violations),
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}

	if wantsHTML(r) {
		if created {
			middleware.Flash(w, r, "product_created")
		} else {
			middleware.Flash(w, r, "product_updated")
		}
		http.Redirect(w, r, safeNext(r, "/products"), statusSeeOther)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, product)
}

// Delete handles POST /products/{id}/delete. Deletion must be confirmed
// by a POST submission, never a plain navigation.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		if wantsHTML(r) {
			middleware.Flash(w, r, "confirm_delete")
			http.Redirect(w, r, safeNext(r, "/products"), statusSeeOther)
			return
		}
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := idFromPath(r.URL.Path, "/products")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	err := h.Service.Delete(r.Context(), id)
	if err != nil {
		if wantsHTML(r) {
			switch {
			case err == services.ErrIntegrity:
				middleware.Flash(w, r, "product_in_use")
			case err == services.ErrNotFound:
				httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
				return
			}
			http.Redirect(w, r, safeNext(r, "/products"), statusSeeOther)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		middleware.Flash(w, r, "product_deleted")
		http.Redirect(w, r, safeNext(r, "/products"), statusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func formUintQuery(r *http.Request, field string) uint {
	n, _ := strconv.ParseUint(strings.TrimSpace(r.URL.Query().Get(field)), 10, 64)
	return uint(n)
}
