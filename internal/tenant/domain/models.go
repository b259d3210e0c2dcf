package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type TenantStatus string

const (
	StatusActive   TenantStatus = "active"
	StatusInactive TenantStatus = "inactive"
)

// Tenant is a control-plane row describing one bookkeeping organization.
// DBName is only meaningful under database isolation.
type Tenant struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug"`
	Name        string       `gorm:"type:text;not null"`
	Status      TenantStatus `gorm:"type:text;not null;default:active"`
	DBName      string       `gorm:"type:text"`
	Provisioned bool         `gorm:"not null;default:false"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Tenant) TableName() string { return "tenants" }

// Handle is a resolved tenant plus the database scope every downstream call
// must run against.
type Handle struct {
	Tenant Tenant
	DB     *gorm.DB
}
