package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/listing"
	"github.com/forneria/shop/internal/middleware"
	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/services"
)

var customerOrders = listing.Whitelist{
	Default: "name",
	Columns: map[string]string{
		"name":    "name",
		"created": "created_at",
	},
}

type CustomerHandler struct {
	DB      *gorm.DB
	Service *services.CustomerService
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{DB: db, Service: services.NewCustomerService(db)}
}

// List handles GET /customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Model(&models.Customer{})

	search := listing.Search(r)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("lower(name) LIKE ? OR lower(email) LIKE ? OR lower(rut) LIKE ?", like, like, like)
	}
	orderParam, orderClause := customerOrders.Resolve(r.URL.Query().Get("order"))
	q = q.Order(orderClause)

	perPage := middleware.PageSize(w, r, "customers")
	page, err := listing.Paginate[models.Customer](q, listing.PageNumber(r), perPage)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_customers", nil)
		return
	}

	if wantsHTML(r) {
		renderTemplate(w, r, "customers/list", map[string]any{
			"Page":    page,
			"Search":  search,
			"Order":   orderParam,
			"PerPage": perPage,
			"Choices": middleware.PageSizeChoices,
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

type customerPayload struct {
	Name  string `json:"name"`
	RUT   string `json:"rut"`
	Email string `json:"email"`
}

func (p customerPayload) apply(dst *models.Customer) {
	dst.Name = strings.TrimSpace(p.Name)
	dst.Email = strings.TrimSpace(p.Email)
	rut := strings.TrimSpace(p.RUT)
	if rut == "" {
		dst.RUT = nil
	} else {
		dst.RUT = &rut
	}
}

// Create handles GET (form) and POST /customers/new.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "customers/form", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	h.save(w, r, &models.Customer{})
}

// Update handles GET (form) and POST /customers/{id}/edit.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/customers")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	customer, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "customers/form", map[string]any{"Customer": customer})
		return
	}
	h.save(w, r, customer)
}

func (h *CustomerHandler) save(w http.ResponseWriter, r *http.Request, customer *models.Customer) {
	var payload customerPayload
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
		payload = customerPayload{
			Name:  r.FormValue("name"),
			RUT:   r.FormValue("rut"),
			Email: r.FormValue("email"),
		}
	}
	created := customer.ID == 0
	payload.apply(customer)

	if err := h.Service.Save(r.Context(), customer); err != nil {
		if ve, ok := services.AsValidation(err); ok && wantsHTML(r) {
			middleware.Flash(w, r, "check_form")
			w.WriteHeader(http.StatusBadRequest)
			renderTemplate(w, r, "customers/form", map[string]any{
				"Customer": customer,
				"Errors":   translated(r, ve.Violations),
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}

	if wantsHTML(r) {
		if created {
			middleware.Flash(w, r, "customer_created")
		} else {
			middleware.Flash(w, r, "customer_updated")
		}
		http.Redirect(w, r, safeNext(r, "/customers"), statusSeeOther)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, customer)
}

// Delete handles POST /customers/{id}/delete with protect-on-delete.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		if wantsHTML(r) {
			middleware.Flash(w, r, "confirm_delete")
			http.Redirect(w, r, safeNext(r, "/customers"), statusSeeOther)
			return
		}
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := idFromPath(r.URL.Path, "/customers")
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	err := h.Service.Delete(r.Context(), id)
	if err != nil {
		if err == services.ErrIntegrity && wantsHTML(r) {
			middleware.Flash(w, r, "customer_in_use")
			http.Redirect(w, r, safeNext(r, "/customers"), statusSeeOther)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	if wantsHTML(r) {
		middleware.Flash(w, r, "customer_deleted")
		http.Redirect(w, r, safeNext(r, "/customers"), statusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}
