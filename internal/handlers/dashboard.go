package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/policy"
)

type DashboardHandler struct {
	DB   *gorm.DB
	Gate *policy.AuthGate
}

func NewDashboardHandler(db *gorm.DB, g *policy.AuthGate) *DashboardHandler {
	return &DashboardHandler{DB: db, Gate: g}
}

// Index shows today's numbers. Admins additionally see customer counts
// and pending alerts.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var totalProducts, salesToday int64
	h.DB.Model(&models.Product{}).Count(&totalProducts)
	h.DB.Model(&models.Sale{}).Where("date >= ?", dayStart).Count(&salesToday)

	data := map[string]any{
		"total_products": totalProducts,
		"sales_today":    salesToday,
	}
	if h.Gate.IsAdmin(r.Context()) {
		var totalCustomers, pendingAlerts int64
		h.DB.Model(&models.Customer{}).Count(&totalCustomers)
		h.DB.Model(&models.Alert{}).Where("state = ?", models.AlertPending).Count(&pendingAlerts)
		data["total_customers"] = totalCustomers
		data["pending_alerts"] = pendingAlerts
	}

	if wantsHTML(r) {
		renderTemplate(w, r, "dashboard", map[string]any{"Stats": data})
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}
