package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	billdomain "github.com/lekhabooks/lekha/internal/billwise/domain"
	"github.com/lekhabooks/lekha/internal/config"
	einvoicedomain "github.com/lekhabooks/lekha/internal/einvoice/domain"
	tenantdomain "github.com/lekhabooks/lekha/internal/tenant/domain"
	voucherdomain "github.com/lekhabooks/lekha/internal/voucher/domain"
)

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	genID    *snowflake.Node
	tenants  tenantdomain.Service
	vouchers voucherdomain.Service
	bills    billdomain.Service
	accounts accountdomain.Service
	einvoice einvoicedomain.Service
	audit    auditdomain.Service
}

type Params struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	GenID    *snowflake.Node
	Tenants  tenantdomain.Service
	Vouchers voucherdomain.Service
	Bills    billdomain.Service
	Accounts accountdomain.Service
	Einvoice einvoicedomain.Service
	Audit    auditdomain.Service
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		log:      p.Log.Named("server"),
		genID:    p.GenID,
		tenants:  p.Tenants,
		vouchers: p.Vouchers,
		bills:    p.Bills,
		accounts: p.Accounts,
		einvoice: p.Einvoice,
		audit:    p.Audit,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	admin := s.engine.Group("/v1/tenants")
	admin.POST("", s.ProvisionTenant)
	admin.POST("/:id/deactivate", s.DeactivateTenant)

	v1 := s.engine.Group("/v1", s.TenantContext())
	v1.POST("/vouchers", s.PostVoucher)
	v1.POST("/vouchers/drafts", s.SaveVoucherDraft)
	v1.POST("/vouchers/:id/cancel", s.CancelVoucher)
	v1.GET("/vouchers/:id", s.GetVoucher)
	v1.POST("/vouchers/:id/einvoice", s.AttachEInvoice)
	v1.GET("/vouchers/:id/einvoice", s.GetEInvoice)

	v1.POST("/allocations", s.Allocate)
	v1.GET("/ledgers/:id/outstanding", s.Outstanding)
	v1.GET("/ledgers/:id/balance", s.LedgerBalance)

	v1.POST("/groups", s.CreateGroup)
	v1.POST("/ledgers", s.CreateLedger)

	v1.POST("/tax/gst", s.PreviewGST)
	v1.POST("/tax/tds", s.PreviewTDS)

	v1.GET("/audit-logs", s.ListAuditLogs)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine, _ *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)
