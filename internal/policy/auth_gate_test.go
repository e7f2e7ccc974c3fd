package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forneria/shop/internal/auth"
	"github.com/forneria/shop/internal/gate"
	"github.com/forneria/shop/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Permission{}, &models.Profile{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, profileName string, codes ...[2]string) *models.User {
	t.Helper()
	var perms []models.Permission
	for _, c := range codes {
		p := models.Permission{ResourceType: c[0], Action: c[1]}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("create permission: %v", err)
		}
		perms = append(perms, p)
	}
	profile := models.Profile{Name: profileName, Permissions: perms}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	user := models.User{Email: profileName + "@forneria.cl", Password: "x", ProfileID: &profile.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func TestAuthorizeWithSellerProfile(t *testing.T) {
	db := testDB(t)
	seller := seedUser(t, db, "vendedor", [2]string{"sale", "create"}, [2]string{"product", "list"})
	ag := NewAuthGate(db, time.Minute)

	ctx := auth.WithUserID(context.Background(), seller.ID)
	if err := ag.Authorize(ctx, gate.ActionCreate, "sale"); err != nil {
		t.Fatalf("expected sale:create allowed, got %v", err)
	}
	if err := ag.Authorize(ctx, gate.ActionDelete, "product"); err != gate.ErrUnauthorized {
		t.Fatalf("expected product:delete denied, got %v", err)
	}
	if ag.IsAdmin(ctx) {
		t.Fatal("seller must not be admin")
	}
}

func TestAdminWildcardCoversEverything(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, "admin", [2]string{"*", "*"})
	ag := NewAuthGate(db, time.Minute)

	ctx := auth.WithUserID(context.Background(), admin.ID)
	for _, res := range []string{"sale", "product", "customer", "user", "alert"} {
		if !ag.Can(ctx, gate.ActionDelete, res) {
			t.Fatalf("admin should delete %s", res)
		}
	}
	if !ag.IsAdmin(ctx) {
		t.Fatal("expected admin")
	}
}

func TestRequireRedirectsAnonymousToLogin(t *testing.T) {
	db := testDB(t)
	ag := NewAuthGate(db, time.Minute)
	handler := ag.Require(GuardSpec{ResourceType: "sale", Action: gate.ActionCreate, Fallback: "/sales"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := httptest.NewRequest(http.MethodGet, "/sales/new", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRequireRedirectsUnauthorizedWithFlash(t *testing.T) {
	db := testDB(t)
	seller := seedUser(t, db, "vendedor", [2]string{"sale", "list"})
	ag := NewAuthGate(db, time.Minute)
	handler := ag.Require(GuardSpec{ResourceType: "product", Action: gate.ActionDelete, Fallback: "/products"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := httptest.NewRequest(http.MethodPost, "/products/1/delete", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), seller.ID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/products" {
		t.Fatalf("expected redirect to /products, got %d %q", w.Code, w.Header().Get("Location"))
	}
	var flash *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "flash" {
			flash = c
		}
	}
	if flash == nil || flash.Value == "" {
		t.Fatal("expected flash cookie on denial")
	}
}

func TestRequireReturnsJSONForAPIClients(t *testing.T) {
	db := testDB(t)
	ag := NewAuthGate(db, time.Minute)
	handler := ag.Require(GuardSpec{ResourceType: "sale", Action: gate.ActionList})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestInvalidateUserPicksUpProfileChange(t *testing.T) {
	db := testDB(t)
	seller := seedUser(t, db, "vendedor", [2]string{"sale", "list"})
	ag := NewAuthGate(db, time.Hour)
	ctx := auth.WithUserID(context.Background(), seller.ID)

	if ag.Can(ctx, gate.ActionDelete, "sale") {
		t.Fatal("should start without sale:delete")
	}
	perm := models.Permission{ResourceType: "sale", Action: "delete"}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("create permission: %v", err)
	}
	var profile models.Profile
	if err := db.Where("name = ?", "vendedor").First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if err := db.Model(&profile).Association("Permissions").Append(&perm); err != nil {
		t.Fatalf("append permission: %v", err)
	}

	// Still cached.
	if ag.Can(ctx, gate.ActionDelete, "sale") {
		t.Fatal("cache should still deny")
	}
	ag.InvalidateUser(seller.ID)
	if !ag.Can(ctx, gate.ActionDelete, "sale") {
		t.Fatal("expected grant after invalidation")
	}
}
