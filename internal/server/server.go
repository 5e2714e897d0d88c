package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/salesdesk/internal/allocation"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
	"github.com/smallbiznis/salesdesk/internal/allocationrule"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	"github.com/smallbiznis/salesdesk/internal/config"
	"github.com/smallbiznis/salesdesk/internal/lead"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/salesdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/salesdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/salesdesk/internal/observability/tracing"
	"github.com/smallbiznis/salesdesk/internal/productgroup"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	"github.com/smallbiznis/salesdesk/internal/ratelimit"
	"github.com/smallbiznis/salesdesk/internal/salesemployee"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"github.com/smallbiznis/salesdesk/internal/specialization"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	productgroup.Module,
	salesemployee.Module,
	specialization.Module,
	lead.Module,
	allocationrule.Module,
	allocation.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

type Server struct {
	engine            *gin.Engine
	cfg               config.Config
	productGroupSvc   productgroupdomain.Service
	salesEmployeeSvc  salesemployeedomain.Service
	specializationSvc specializationdomain.Service
	leadSvc           leaddomain.Service
	allocationRuleSvc allocationruledomain.Service
	allocationSvc     allocationdomain.Service
	intakeLimiter     *ratelimit.IntakeLimiter
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	ProductGroupSvc   productgroupdomain.Service
	SalesEmployeeSvc  salesemployeedomain.Service
	SpecializationSvc specializationdomain.Service
	LeadSvc           leaddomain.Service
	AllocationRuleSvc allocationruledomain.Service
	AllocationSvc     allocationdomain.Service
	IntakeLimiter     *ratelimit.IntakeLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		productGroupSvc:   p.ProductGroupSvc,
		salesEmployeeSvc:  p.SalesEmployeeSvc,
		specializationSvc: p.SpecializationSvc,
		leadSvc:           p.LeadSvc,
		allocationRuleSvc: p.AllocationRuleSvc,
		allocationSvc:     p.AllocationSvc,
		intakeLimiter:     p.IntakeLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	r := s.engine

	// -------- Allocation rules --------
	r.GET("/allocation-rules", s.ListAllocationRules)
	r.POST("/allocation-rules", s.CreateAllocationRule)
	r.GET("/allocation-rules/:id", s.GetAllocationRuleByID)
	r.PUT("/allocation-rules/:id", s.UpdateAllocationRule)
	r.DELETE("/allocation-rules/:id", s.DeleteAllocationRule)
	r.POST("/allocation-rules/:id/auto-fill", s.AutoFillAllocationRule)

	// -------- Sales employees --------
	r.GET("/sales-employees", s.ListSalesEmployees)
	r.POST("/sales-employees", s.CreateSalesEmployee)
	r.GET("/sales-employees/:id", s.GetSalesEmployeeByID)
	r.PATCH("/sales-employees/:id", s.UpdateSalesEmployee)
	r.GET("/sales-employees/:id/specializations", s.ListSpecializations)
	r.POST("/sales-employees/:id/specializations", s.CreateSpecialization)
	r.DELETE("/sales-employees/:id/specializations/:productGroupId", s.DeleteSpecialization)

	// -------- Product groups --------
	r.GET("/product-groups", s.ListProductGroups)
	r.POST("/product-groups", s.CreateProductGroup)
	r.GET("/product-groups/:id", s.GetProductGroupByID)
	r.DELETE("/product-groups/:id", s.DeleteProductGroup)

	// -------- Leads --------
	r.GET("/leads", s.ListLeads)
	r.POST("/leads", s.IntakeRateLimit(), s.CreateLead)
	r.GET("/leads/:id", s.GetLeadByID)
	r.POST("/leads/:id/assign", s.AssignLead)
	r.POST("/leads/:id/auto-assign", s.AutoAssignLead)
	r.GET("/leads/:id/assignments", s.ListLeadAssignments)

	// -------- Allocation --------
	r.POST("/allocation/auto-distribute", s.AutoDistribute)
	r.POST("/allocation/reset-daily", s.ResetDailyCounts)
	r.GET("/allocation/workload", s.Workload)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
