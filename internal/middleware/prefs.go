package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/forneria/shop/internal/i18n"
)

type ctxKey string

const ctxLang ctxKey = "pref_lang"

// PageSizeChoices is the whitelisted set of listing page sizes.
var PageSizeChoices = []int{5, 15, 30}

// DefaultPageSize is used when no preference is stored.
const DefaultPageSize = 15

// Prefs extracts the language preference (cookie > query > header) and
// stores it in the request context. Query-provided values persist in a
// cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := "es"
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if lang != "es" && lang != "en" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx := context.WithValue(r.Context(), ctxLang, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LangFrom returns the language preference from context or fallback.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return "es"
}

// PageSize resolves the page size for a listing. A valid ?per_page value is
// persisted per listing in a session cookie and becomes the default on
// later visits; anything outside the whitelist falls back to the stored
// preference (or DefaultPageSize).
func PageSize(w http.ResponseWriter, r *http.Request, listing string) int {
	cookieName := listing + "_per_page"
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && allowedPageSize(n) {
			http.SetCookie(w, &http.Cookie{Name: cookieName, Value: strconv.Itoa(n), Path: "/"})
			return n
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		if n, err := strconv.Atoi(c.Value); err == nil && allowedPageSize(n) {
			return n
		}
	}
	return DefaultPageSize
}

func allowedPageSize(n int) bool {
	for _, c := range PageSizeChoices {
		if n == c {
			return true
		}
	}
	return false
}

// Flash sets a translated flash message cookie using a translation code
// (or the literal text if no translation exists).
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	msg := i18n.T(LangFrom(r), code)
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: url.QueryEscape(msg), Path: "/"})
}

// PopFlash returns the pending flash message, if any, and clears it.
func PopFlash(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie("flash")
	if err != nil || c.Value == "" {
		return "", false
	}
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	if dec, derr := url.QueryUnescape(c.Value); derr == nil {
		return dec, true
	}
	return c.Value, true
}
