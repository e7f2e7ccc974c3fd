package db

import (
	"strings"

	"github.com/forneria/shop/internal/models"
	"gorm.io/gorm"
)

// SeedPermissions creates the core resource:action permissions.
// Idempotent; called during initial setup.
func SeedPermissions(db *gorm.DB) error {
	type perm struct {
		ResourceType string
		Action       string
		Description  string
	}
	var permissions []perm

	// Superadmin wildcard
	permissions = append(permissions, perm{"*", "*", "Full system access"})

	crud := []string{"list", "view", "create", "update", "delete"}
	for _, resource := range []string{"product", "sale", "customer", "user", "profile", "movement", "alert"} {
		permissions = append(permissions, perm{resource, "*", "All " + resource + " actions"})
		for _, action := range crud {
			permissions = append(permissions, perm{resource, action, action + " " + resource})
		}
	}
	permissions = append(permissions,
		perm{"product", "export", "Export products to spreadsheet"},
		perm{"sale", "export", "Export sales to spreadsheet"},
		perm{"alert", "attend", "Mark alerts as attended"},
	)

	for _, p := range permissions {
		record := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&record)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the default system profiles with their permissions.
// Administrator gets the wildcard; the seller profile mirrors the shop's
// day-to-day role (register sales, manage products, look up customers);
// the reader profile is read-only.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	profiles := []struct {
		Name        string
		Description string
		IsSystem    bool
		Permissions []string
	}{
		{
			Name:        "admin",
			Description: "Administrador con acceso completo",
			IsSystem:    true,
			Permissions: []string{"*:*"},
		},
		{
			Name:        "vendedor",
			Description: "Registra ventas, gestiona productos y consulta clientes",
			IsSystem:    true,
			Permissions: []string{
				"product:list", "product:view", "product:create", "product:update", "product:export",
				"sale:list", "sale:view", "sale:create", "sale:update", "sale:export",
				"customer:list", "customer:view",
				"movement:list", "movement:view", "movement:create",
				"alert:list", "alert:view", "alert:attend",
			},
		},
		{
			Name:        "lector",
			Description: "Acceso de solo lectura",
			IsSystem:    true,
			Permissions: []string{
				"product:list", "product:view",
				"sale:list", "sale:view",
				"customer:list", "customer:view",
				"alert:list", "alert:view",
			},
		},
	}

	for _, p := range profiles {
		var profile models.Profile
		result := db.Where("name = ?", p.Name).First(&profile)
		if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}
		if result.Error == gorm.ErrRecordNotFound {
			profile = models.Profile{
				Name:        p.Name,
				Description: p.Description,
				IsSystem:    p.IsSystem,
			}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			parts := strings.SplitN(code, ":", 2)
			if len(parts) != 2 {
				continue
			}
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", parts[0], parts[1]).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}
