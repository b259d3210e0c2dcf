package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	"github.com/lekhabooks/lekha/internal/audit/masking"
)

// sensitiveKeys are metadata fields carrying statutory identifiers.
var sensitiveKeys = []string{"gstin", "pan"}

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, db *gorm.DB, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		actor = "system"
	}

	row := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		TenantID:   entry.TenantID,
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   entry.TargetID,
		Metadata:   datatypes.JSONMap(masking.MaskSensitive(entry.Metadata, sensitiveKeys...)),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, db, &row); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, db *gorm.DB, filter auditdomain.ListFilter) ([]auditdomain.AuditLog, error) {
	if filter.StartAt != nil && filter.EndAt != nil && filter.StartAt.After(*filter.EndAt) {
		return nil, auditdomain.ErrInvalidTimeRange
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, db, filter)
}
