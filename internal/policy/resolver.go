package policy

import (
	"context"

	"github.com/forneria/shop/internal/gate"
	"github.com/forneria/shop/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver fetches user profiles from the database.
// It implements gate.ProfileResolver for uint user IDs.
type DBProfileResolver struct {
	DB *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve looks up the user's profile, preloading permissions.
// Returns nil if the user has no profile assigned.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Profile.Permissions").First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, nil
	}
	return &dbProfileAdapter{profile: user.Profile}, nil
}

// dbProfileAdapter wraps a models.Profile to implement gate.Profile.
type dbProfileAdapter struct {
	profile *models.Profile
}

func (a *dbProfileAdapter) ID() uint     { return a.profile.ID }
func (a *dbProfileAdapter) Name() string { return a.profile.Name }

// HasPermission checks the profile's stored permissions against the
// requested one, honoring "*:*" and "resource:*" wildcards.
func (a *dbProfileAdapter) HasPermission(perm gate.Permission) bool {
	for _, p := range a.profile.Permissions {
		if gate.Permission(p.Code()).Matches(perm) {
			return true
		}
	}
	return false
}

func (a *dbProfileAdapter) Permissions() []gate.Permission {
	result := make([]gate.Permission, len(a.profile.Permissions))
	for i, p := range a.profile.Permissions {
		result[i] = gate.Permission(p.Code())
	}
	return result
}
