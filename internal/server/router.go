package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/forneria/shop/internal/auth"
	"github.com/forneria/shop/internal/gate"
	"github.com/forneria/shop/internal/handlers"
	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/middleware"
	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/policy"
	"github.com/forneria/shop/internal/view"
)

// New constructs the root http.Handler: routes, per-route permission
// guards and the shared middleware chain.
func New(db *gorm.DB, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Sessions referencing deleted users are treated as anonymous.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	authGate := policy.NewAuthGate(db, 5*time.Minute)
	view.SetAuthorizer(authGate)

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	// guarded wraps a handler with session auth plus a permission guard.
	guarded := func(spec policy.GuardSpec, h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(authGate.Require(spec)(h)))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	dashboard := handlers.NewDashboardHandler(db, authGate)
	mux.Handle("/dashboard", authed(dashboard.Index))
	mux.Handle("/session", authed(authHandler.SessionInfo))

	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", guarded(
		policy.GuardSpec{ResourceType: "product", Action: gate.ActionList, Fallback: "/dashboard"},
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("export") == "xlsx" {
				// Export carries its own permission.
				authGate.Require(policy.GuardSpec{ResourceType: "product", Action: gate.ActionExport, Fallback: "/products"})(
					http.HandlerFunc(ph.List)).ServeHTTP(w, r)
				return
			}
			ph.List(w, r)
		}))
	mux.Handle("/products/new", guarded(
		policy.GuardSpec{ResourceType: "product", Action: gate.ActionCreate, Fallback: "/products"},
		ph.Create))
	mux.Handle("/products/", auth.Middleware(auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/edit"):
			authGate.Require(policy.GuardSpec{ResourceType: "product", Action: gate.ActionUpdate, Fallback: "/products"})(
				http.HandlerFunc(ph.Update)).ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/delete"):
			authGate.Require(policy.GuardSpec{ResourceType: "product", Action: gate.ActionDelete, Fallback: "/products"})(
				http.HandlerFunc(ph.Delete)).ServeHTTP(w, r)
		default:
			authGate.Require(policy.GuardSpec{ResourceType: "product", Action: gate.ActionView, Fallback: "/products"})(
				http.HandlerFunc(ph.Detail)).ServeHTTP(w, r)
		}
	}))))

	sh := handlers.NewSaleHandler(db)
	mux.Handle("/sales", guarded(
		policy.GuardSpec{ResourceType: "sale", Action: gate.ActionList, Fallback: "/dashboard"},
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("export") == "xlsx" {
				authGate.Require(policy.GuardSpec{ResourceType: "sale", Action: gate.ActionExport, Fallback: "/sales"})(
					http.HandlerFunc(sh.List)).ServeHTTP(w, r)
				return
			}
			sh.List(w, r)
		}))
	mux.Handle("/sales/new", guarded(
		policy.GuardSpec{ResourceType: "sale", Action: gate.ActionCreate, Fallback: "/sales"},
		sh.Create))
	mux.Handle("/sales/", auth.Middleware(auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/edit"):
			authGate.Require(policy.GuardSpec{ResourceType: "sale", Action: gate.ActionUpdate, Fallback: "/sales"})(
				http.HandlerFunc(sh.Update)).ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/delete"):
			authGate.Require(policy.GuardSpec{ResourceType: "sale", Action: gate.ActionDelete, Fallback: "/sales"})(
				http.HandlerFunc(sh.Delete)).ServeHTTP(w, r)
		default:
			authGate.Require(policy.GuardSpec{ResourceType: "sale", Action: gate.ActionView, Fallback: "/sales"})(
				http.HandlerFunc(sh.Detail)).ServeHTTP(w, r)
		}
	}))))

	ch := handlers.NewCustomerHandler(db)
	mux.Handle("/customers", guarded(
		policy.GuardSpec{ResourceType: "customer", Action: gate.ActionList, Fallback: "/dashboard"},
		ch.List))
	mux.Handle("/customers/new", guarded(
		policy.GuardSpec{ResourceType: "customer", Action: gate.ActionCreate, Fallback: "/customers"},
		ch.Create))
	mux.Handle("/customers/", auth.Middleware(auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/edit"):
			authGate.Require(policy.GuardSpec{ResourceType: "customer", Action: gate.ActionUpdate, Fallback: "/customers"})(
				http.HandlerFunc(ch.Update)).ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/delete"):
			authGate.Require(policy.GuardSpec{ResourceType: "customer", Action: gate.ActionDelete, Fallback: "/customers"})(
				http.HandlerFunc(ch.Delete)).ServeHTTP(w, r)
		default:
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		}
	}))))

	inv := handlers.NewInventoryHandler(db)
	mux.Handle("/inventory/movements", guarded(
		policy.GuardSpec{ResourceType: "movement", Action: gate.ActionList, Fallback: "/dashboard"},
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				authGate.Require(policy.GuardSpec{ResourceType: "movement", Action: gate.ActionCreate, Fallback: "/inventory/movements"})(
					http.HandlerFunc(inv.Movements)).ServeHTTP(w, r)
				return
			}
			inv.Movements(w, r)
		}))
	mux.Handle("/alerts", guarded(
		policy.GuardSpec{ResourceType: "alert", Action: gate.ActionList, Fallback: "/dashboard"},
		inv.Alerts))
	mux.Handle("/alerts/", guarded(
		policy.GuardSpec{ResourceType: "alert", Action: "attend", Fallback: "/alerts"},
		inv.AttendAlert))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	chain := middleware.Prefs(mux)
	chain = middleware.Logging(log)(chain)
	chain = middleware.Recover(log)(chain)
	return chain
}
