package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a state-changing action inside a
// tenant's books.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	TenantID   snowflake.ID      `gorm:"not null;index:idx_audit_logs_tenant"`
	Actor      string            `gorm:"type:text;not null"`
	Action     string            `gorm:"type:text;not null;index:idx_audit_logs_action"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   snowflake.ID      `gorm:"not null"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	TenantID   snowflake.ID
	Action     string
	TargetType string
	TargetID   snowflake.ID
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}

// Entry is the caller-facing shape of a record request. Sensitive metadata
// values are masked before persistence.
type Entry struct {
	TenantID   snowflake.ID
	Actor      string
	Action     string
	TargetType string
	TargetID   snowflake.ID
	Metadata   map[string]any
}

type Service interface {
	// Record appends an audit entry. Failures are returned but callers on
	// the request path usually log and move on.
	Record(ctx context.Context, db *gorm.DB, entry Entry) error

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}
