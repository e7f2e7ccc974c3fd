package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forneria/shop/internal/auth"
	"github.com/forneria/shop/internal/db"
	"github.com/forneria/shop/internal/models"
)

func testHandler(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedProfiles(conn); err != nil {
		t.Fatalf("seed profiles: %v", err)
	}
	return New(conn, zap.NewNop()), conn
}

func sessionCookie(t *testing.T, conn *gorm.DB, profileName string) *http.Cookie {
	t.Helper()
	var profile models.Profile
	if err := conn.Where("name = ?", profileName).First(&profile).Error; err != nil {
		t.Fatalf("load profile %s: %v", profileName, err)
	}
	user := models.User{Email: profileName + "@forneria.cl", Password: "x", ProfileID: &profile.ID}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, user.ID)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	return cookies[0]
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := testHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	handler, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect = %s, want /login", loc)
	}
}

func TestAnonymousGets401JSON(t *testing.T) {
	handler, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSellerCanListProducts(t *testing.T) {
	handler, conn := testHandler(t)
	cookie := sessionCookie(t, conn, "vendedor")

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestSellerCannotDeleteProduct(t *testing.T) {
	handler, conn := testHandler(t)
	cookie := sessionCookie(t, conn, "vendedor")

	req := httptest.NewRequest(http.MethodPost, "/products/1/delete", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestAdminCanReachAlerts(t *testing.T) {
	handler, conn := testHandler(t)
	cookie := sessionCookie(t, conn, "admin")

	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestRootRedirectsToDashboard(t *testing.T) {
	handler, conn := testHandler(t)
	cookie := sessionCookie(t, conn, "admin")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("redirect = %s", loc)
	}
}
