package registry

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lekhabooks/lekha/internal/config"
	"github.com/lekhabooks/lekha/internal/tenant/domain"
	"github.com/lekhabooks/lekha/pkg/db"
)

// Registry hands out the database scope for a tenant. Under shared isolation
// every tenant runs on the control-plane connection with tenant_id scoping;
// under database isolation each tenant gets its own connection, opened
// lazily and cached until evicted.
type Registry struct {
	cfg     config.Config
	log     *zap.Logger
	control *gorm.DB

	mu      sync.RWMutex
	handles map[snowflake.ID]*gorm.DB
}

func New(cfg config.Config, log *zap.Logger, control *gorm.DB) *Registry {
	return &Registry{
		cfg:     cfg,
		log:     log.Named("tenant.registry"),
		control: control,
		handles: make(map[snowflake.ID]*gorm.DB),
	}
}

// Acquire returns the *gorm.DB for the tenant, opening and caching a
// dedicated connection under database isolation.
func (r *Registry) Acquire(tenant domain.Tenant) (*gorm.DB, error) {
	if r.cfg.TenantIsolation != "database" {
		return r.control, nil
	}

	r.mu.RLock()
	conn, ok := r.handles[tenant.ID]
	r.mu.RUnlock()
	if ok {
		return conn, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.handles[tenant.ID]; ok {
		return conn, nil
	}

	conn, err := db.Open(r.cfg, tenant.DBName, r.log)
	if err != nil {
		return nil, err
	}
	r.handles[tenant.ID] = conn
	r.log.Info("tenant database opened",
		zap.Int64("tenant_id", tenant.ID.Int64()),
		zap.String("db_name", tenant.DBName),
	)
	return conn, nil
}

// Cached reports whether a dedicated connection is currently held.
func (r *Registry) Cached(tenantID snowflake.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handles[tenantID]
	return ok
}

// Evict closes and removes the tenant's cached connection.
func (r *Registry) Evict(tenantID snowflake.ID) error {
	r.mu.Lock()
	conn, ok := r.handles[tenantID]
	delete(r.handles, tenantID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	r.log.Info("tenant database evicted", zap.Int64("tenant_id", tenantID.Int64()))
	return sqlDB.Close()
}

// Close tears down every cached connection. The control-plane connection is
// owned elsewhere and left alone.
func (r *Registry) Close() error {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[snowflake.ID]*gorm.DB)
	r.mu.Unlock()

	var firstErr error
	for id, conn := range handles {
		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		r.log.Debug("tenant database closed", zap.Int64("tenant_id", id.Int64()))
	}
	return firstErr
}
