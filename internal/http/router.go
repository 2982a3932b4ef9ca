package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/safereport/backend/internal/config"
	"github.com/safereport/backend/internal/http/handlers"
	"github.com/safereport/backend/internal/http/middleware"
	"github.com/safereport/backend/internal/intake"
	"github.com/safereport/backend/internal/lifecycle"
	"github.com/safereport/backend/internal/registry"
	"github.com/safereport/backend/internal/store"

	_ "github.com/safereport/backend/docs"
)

type Deps struct {
	Registry  *registry.Registry
	Intake    *intake.Service
	Lifecycle *lifecycle.Manager
	Store     store.ReportStore
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Actor(cfg.GatewayKey))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id",
			middleware.ActorRoleHeader, middleware.ActorIDHeader, middleware.GatewayKeyHeader,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		for _, o := range strings.Split(cfg.CORSAllowed, ",") {
			if o = strings.TrimSpace(o); o != "" {
				corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, o)
			}
		}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Registry:  deps.Registry,
		Intake:    deps.Intake,
		Lifecycle: deps.Lifecycle,
		Store:     deps.Store,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	if cfg.RequestTimeout > 0 {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	{
		api.GET("/sectors", h.SectorsList)
		api.GET("/sectors/:sector/categories", h.CategoriesList)
		api.GET("/sectors/:sector/categories/:category/fields", h.FieldsList)

		api.POST("/drafts", h.DraftStart)
		api.GET("/drafts/:id", h.DraftGet)
		api.POST("/drafts/:id/steps", h.DraftAdvance)
		api.POST("/drafts/:id/back", h.DraftBack)
		api.DELETE("/drafts/:id", h.DraftAbandon)
		api.POST("/drafts/:id/submit", h.DraftSubmit)

		api.GET("/cases/:caseId", middleware.RateLimit(cfg.LookupRatePerMin, cfg.LookupBurst), h.CaseLookup)

		api.GET("/reports", h.ReportsList)
		api.GET("/reports/:id", h.ReportGet)
		api.PATCH("/reports/:id", h.ReportEdit)
		api.PATCH("/reports/:id/status", h.ReportUpdateStatus)
		api.PATCH("/reports/:id/triage", h.ReportUpdateTriage)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
