package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/forneria/shop/internal/auth"
	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/middleware"
	"github.com/forneria/shop/internal/models"
)

const visitsCookie = "forneria_visits"

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/logout", h.logout)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != 0 {
			var count int64
			if err := h.DB.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err == nil && count > 0 {
				http.Redirect(w, r, "/", statusSeeOther)
				return
			}
		}
		renderTemplate(w, r, "login", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	email, password := credentials(r)
	var user models.User
	err := h.DB.Where("email = ?", email).First(&user).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		if wantsHTML(r) {
			w.WriteHeader(http.StatusUnauthorized)
			renderTemplate(w, r, "login", map[string]any{"Error": "invalid_credentials"})
			return
		}
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	// Re-issuing the cookie on every login rotates the client-held value
	// (session fixation).
	auth.CreateSession(w, user.ID)
	bumpVisitCounter(w, r)
	middleware.Flash(w, r, "welcome")

	if wantsHTML(r) {
		http.Redirect(w, r, "/", statusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
}

func credentials(r *http.Request) (email, password string) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err == nil {
			return strings.TrimSpace(body.Email), body.Password
		}
		return "", ""
	}
	if err := r.ParseForm(); err != nil {
		return "", ""
	}
	return strings.TrimSpace(r.FormValue("email")), r.FormValue("password")
}

// bumpVisitCounter tracks how many times this browser has logged in.
func bumpVisitCounter(w http.ResponseWriter, r *http.Request) {
	visits := 0
	if c, err := r.Cookie(visitsCookie); err == nil {
		visits, _ = strconv.Atoi(c.Value)
	}
	visits++
	http.SetCookie(w, &http.Cookie{
		Name:    visitsCookie,
		Value:   strconv.Itoa(visits),
		Path:    "/",
		Expires: time.Now().Add(365 * 24 * time.Hour),
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	middleware.Flash(w, r, "logged_out")
	if wantsHTML(r) {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// SessionInfo reports the current session's user and visit count.
func (h *AuthHandler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.DB.Preload("Profile").First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	visits := 0
	if c, err := r.Cookie(visitsCookie); err == nil {
		visits, _ = strconv.Atoi(c.Value)
	}
	profile := ""
	if user.Profile != nil {
		profile = user.Profile.Name
	}
	data := map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"profile": profile,
		"visits":  visits,
	}
	if wantsHTML(r) {
		renderTemplate(w, r, "session_info", map[string]any{"Session": data})
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}
