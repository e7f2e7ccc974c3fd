package policy

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/forneria/shop/internal/auth"
	"github.com/forneria/shop/internal/gate"
	"github.com/forneria/shop/internal/httpx"
	"github.com/forneria/shop/internal/middleware"
	"gorm.io/gorm"
)

// AuthGate is the central authorization point: a Gate backed by a cached
// database profile resolver.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a fully configured authorization gate.
// cacheTTL bounds how stale a profile can be after a permission change
// (e.g. 5*time.Minute).
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	dbResolver := NewDBProfileResolver(db)
	cachedResolver := gate.NewCachedResolver[uint](dbResolver, cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cachedResolver),
		CacheResolver: cachedResolver,
	}
}

// Authorize checks whether the session user can perform action on
// resourceType. Returns gate.ErrUnauthorized on denial.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType)
}

// Can is a convenience method that returns bool instead of error.
// Useful for templates to show/hide buttons.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	return ag.Authorize(ctx, action, resourceType) == nil
}

// IsAdmin reports whether the session user carries the "*:*" permission.
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.IsAdmin(ctx, userID)
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's profile assignment changes.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll clears the entire profile cache.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// GuardSpec describes how a route is protected: the permission it needs
// and where a denied browser user is sent, with which flash message.
type GuardSpec struct {
	ResourceType string
	Action       gate.Action
	Fallback     string // redirect target on denial, e.g. "/sales"
	FlashCode    string // i18n code, defaults to permission_denied
}

// Require returns middleware enforcing spec. Unauthenticated users go to
// /login; authenticated but unauthorized ones are redirected to the
// fallback route with a flash message. API clients get JSON errors.
func (ag *AuthGate) Require(spec GuardSpec) func(http.Handler) http.Handler {
	if spec.Fallback == "" {
		spec.Fallback = "/"
	}
	if spec.FlashCode == "" {
		spec.FlashCode = "permission_denied"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				if wantsJSON(r) {
					httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if err := ag.Gate.Authorize(r.Context(), userID, spec.Action, spec.ResourceType); err != nil {
				if wantsJSON(r) {
					httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
					return
				}
				middleware.Flash(w, r, spec.FlashCode)
				http.Redirect(w, r, spec.Fallback, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
