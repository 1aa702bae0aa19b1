// Package server exposes the HTTP surface: the landing flow, the
// webhook endpoint, their test-mode variants, and the operational
// endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/northcove/fulfillment/internal/config"
	"github.com/northcove/fulfillment/internal/fulfillment"
	"github.com/northcove/fulfillment/internal/observability"
	obsmiddleware "github.com/northcove/fulfillment/internal/observability/logger"
	obsmetrics "github.com/northcove/fulfillment/internal/observability/metrics"
	obstracing "github.com/northcove/fulfillment/internal/observability/tracing"
	"github.com/northcove/fulfillment/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(
		registerGin,
		NewHeaderAuthenticator,
	),
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
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine        *gin.Engine
	cfg           config.Config
	services      fulfillment.Services
	authenticator Authenticator
	limiter       *ratelimit.EndpointLimiter
	log           *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Services      fulfillment.Services
	Authenticator Authenticator
	Limiter       *ratelimit.EndpointLimiter `optional:"true"`
	Logger        *zap.Logger
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		services:      p.Services,
		authenticator: p.Authenticator,
		limiter:       p.Limiter,
		log:           p.Logger.Named("server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/landing", s.landingRateLimit(), s.HandleLanding(s.services.Live))
	s.engine.POST("/landing/confirm", s.landingRateLimit(), s.HandleConfirm(s.services.Live))
	s.engine.POST("/webhook", s.webhookRateLimit(), s.HandleWebhook(s.services.Live))

	// Test routes only exist when test mode is enabled; a disabled
	// deployment serves 404 for the whole /test subtree.
	if s.cfg.TestModeEnabled {
		s.engine.GET("/test/landing", s.landingRateLimit(), s.HandleLanding(s.services.Test))
		s.engine.POST("/test/landing/confirm", s.landingRateLimit(), s.HandleConfirm(s.services.Test))
		s.engine.POST("/test/webhook", s.webhookRateLimit(), s.HandleWebhook(s.services.Test))
	}
}
