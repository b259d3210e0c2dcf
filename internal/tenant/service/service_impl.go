package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lekhabooks/lekha/internal/config"
	"github.com/lekhabooks/lekha/internal/migration"
	"github.com/lekhabooks/lekha/internal/seed"
	"github.com/lekhabooks/lekha/internal/tenant/domain"
	"github.com/lekhabooks/lekha/internal/tenant/registry"
	"github.com/lekhabooks/lekha/pkg/db"
)

var slugRe = regexp.MustCompile(`^[a-z][a-z0-9-]{1,62}$`)

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	DB       *gorm.DB
	Repo     domain.Repository
	Registry *registry.Registry
	Seeder   *seed.Seeder
}

type Service struct {
	log      *zap.Logger
	cfg      config.Config
	genID    *snowflake.Node
	db       *gorm.DB
	repo     domain.Repository
	registry *registry.Registry
	seeder   *seed.Seeder
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("tenant.service"),
		cfg:      p.Cfg,
		genID:    p.GenID,
		db:       p.DB,
		repo:     p.Repo,
		registry: p.Registry,
		seeder:   p.Seeder,
	}
}

// Resolve finds an active, provisioned tenant by slug or numeric ID and
// binds it to its database scope.
func (s *Service) Resolve(ctx context.Context, slugOrID string) (*domain.Handle, error) {
	slugOrID = strings.TrimSpace(slugOrID)
	if slugOrID == "" {
		return nil, domain.ErrTenantNotFound
	}

	var (
		tenant *domain.Tenant
		err    error
	)
	if id, convErr := strconv.ParseInt(slugOrID, 10, 64); convErr == nil {
		tenant, err = s.repo.FindByID(ctx, s.db, snowflake.ID(id))
	} else {
		tenant, err = s.repo.FindBySlug(ctx, s.db, strings.ToLower(slugOrID))
	}
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	if tenant.Status != domain.StatusActive {
		return nil, domain.ErrTenantInactive
	}
	if !tenant.Provisioned {
		return nil, domain.ErrTenantNotProvisioned
	}

	conn, err := s.registry.Acquire(*tenant)
	if err != nil {
		return nil, err
	}
	return &domain.Handle{Tenant: *tenant, DB: conn}, nil
}

// Provision creates the tenant row, prepares its schema under database
// isolation, and seeds the default chart of accounts.
func (s *Service) Provision(ctx context.Context, req domain.ProvisionRequest) (*domain.Tenant, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugRe.MatchString(slug) {
		return nil, domain.ErrInvalidSlug
	}

	existing, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		ID:        s.genID.Generate(),
		Slug:      slug,
		Name:      strings.TrimSpace(req.Name),
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if tenant.Name == "" {
		tenant.Name = slug
	}
	if s.cfg.TenantIsolation == "database" {
		tenant.DBName = "lekha_" + strings.ReplaceAll(slug, "-", "_")
	}

	if err := s.repo.Insert(ctx, s.db, tenant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	conn, err := s.registry.Acquire(*tenant)
	if err != nil {
		return nil, err
	}
	if s.cfg.TenantIsolation == "database" {
		// the dedicated database starts empty
		if err := migration.AutoMigrate(conn); err != nil {
			return nil, err
		}
	}
	if err := s.seeder.Defaults(ctx, conn, tenant.ID); err != nil {
		return nil, err
	}
	if err := s.repo.MarkProvisioned(ctx, s.db, tenant.ID); err != nil {
		return nil, err
	}
	tenant.Provisioned = true

	s.log.Info("tenant provisioned",
		zap.Int64("tenant_id", tenant.ID.Int64()),
		zap.String("slug", tenant.Slug),
		zap.String("isolation", s.cfg.TenantIsolation),
	)
	return tenant, nil
}

// Deactivate soft-disables the tenant and drops its cached handle so the
// next resolve fails fast.
func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	tenant, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.ErrTenantNotFound
	}

	if err := s.repo.UpdateStatus(ctx, s.db, id, domain.StatusInactive); err != nil {
		return err
	}
	if err := s.registry.Evict(id); err != nil {
		return err
	}

	s.log.Info("tenant deactivated", zap.Int64("tenant_id", id.Int64()))
	return nil
}
