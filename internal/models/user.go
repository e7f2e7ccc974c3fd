package models

import (
	"time"

	"gorm.io/gorm"
)

// User & authorization models
type User struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Email     string   `gorm:"size:100;unique;not null;index" json:"email"`
	Password  string   `gorm:"size:150;not null" json:"-"` // bcrypt hash
	FirstName string   `gorm:"size:100" json:"first_name,omitempty"`
	LastName  string   `gorm:"size:100" json:"last_name,omitempty"`
	RUN       string   `gorm:"size:12" json:"run,omitempty"`
	Phone     string   `gorm:"size:20" json:"phone,omitempty"`
	ProfileID *uint    `json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Profile groups permissions; a user is assigned one profile and inherits
// all of its permissions.
type Profile struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"`
	// Many-to-many via profile_permissions join table.
	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"foreignKey:ProfileID" json:"users,omitempty"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Permission is a single allowed action on a resource type,
// "resource:action" format (e.g. "sale:create").
type Permission struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ResourceType string `gorm:"size:50;not null;index:idx_perm_resource_action" json:"resource_type"`
	Action       string `gorm:"size:50;not null;index:idx_perm_resource_action" json:"action"`
	Description  string `gorm:"size:200" json:"description,omitempty"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Code returns the permission in "resource:action" format for matching.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}
