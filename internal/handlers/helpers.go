package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/i18n"
	"github.com/forneria/shop/internal/middleware"
	"github.com/forneria/shop/internal/services"
	"github.com/forneria/shop/internal/view"
)

// Post/Redirect/Get status.
const statusSeeOther = http.StatusSeeOther

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || accept == ""
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

// idFromPath extracts the numeric id segment of paths like
// /products/42 or /products/42/delete.
func idFromPath(path, prefix string) (uint, bool) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func formDecimal(r *http.Request, field string) decimal.Decimal {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func formInt(r *http.Request, field string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(field)))
	return n
}

func formUint(r *http.Request, field string) uint {
	n, _ := strconv.ParseUint(strings.TrimSpace(r.FormValue(field)), 10, 64)
	return uint(n)
}

// safeNext only allows same-site relative redirect targets.
func safeNext(r *http.Request, fallback string) string {
	next := r.FormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return fallback
}

// translated resolves violation codes into the request language.
func translated(r *http.Request, codes map[string]string) map[string]string {
	lang := middleware.LangFrom(r)
	out := make(map[string]string, len(codes))
	for field, code := range codes {
		out[field] = i18n.T(lang, code)
	}
	return out
}

// writeServiceError maps the service error taxonomy onto HTTP for JSON
// clients: 400 with field details, 404, 409 for integrity conflicts.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := services.AsValidation(err); ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", translated(r, ve.Violations))
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if errors.Is(err, services.ErrIntegrity) {
		httpx.JSONError(w, http.StatusConflict, "integrity_violation", nil)
		return
	}
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}
