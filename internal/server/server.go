package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rollcallhq/rollcall/internal/config"
	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	insightsdomain "github.com/rollcallhq/rollcall/internal/insights/domain"
	"github.com/rollcallhq/rollcall/internal/observability"
	obslogger "github.com/rollcallhq/rollcall/internal/observability/logger"
	obsmetrics "github.com/rollcallhq/rollcall/internal/observability/metrics"
	obstracing "github.com/rollcallhq/rollcall/internal/observability/tracing"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	searchdomain "github.com/rollcallhq/rollcall/internal/search/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
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
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	ingestSvc   ingestdomain.Service
	recordSvc   recorddomain.Service
	searchSvc   searchdomain.Service
	insightsSvc insightsdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB `optional:"true"`
	IngestSvc   ingestdomain.Service
	RecordSvc   recorddomain.Service
	SearchSvc   searchdomain.Service
	InsightsSvc insightsdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		ingestSvc:   p.IngestSvc,
		recordSvc:   p.RecordSvc,
		searchSvc:   p.SearchSvc,
		insightsSvc: p.InsightsSvc,
	}

	svc.registerOpsRoutes()
	svc.registerAPIRoutes()
	svc.registerUIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerOpsRoutes() {
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Search --------
	api.GET("/search", s.Search)

	// -------- Records --------
	api.GET("/record", s.GetRecord)

	// -------- Insights --------
	api.GET("/insights", s.GetInsights)
	api.GET("/insights/report", s.RenderInsightsReport)

	// -------- Reload --------
	// The UI triggers rescans with a plain link, so GET is accepted too.
	api.GET("/reload", s.Reload)
	api.POST("/reload", s.Reload)
}

func (s *Server) registerUIRoutes() {
	s.engine.GET("/", s.serveIndex)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, errorResponse{Error: errorPayload{
				Type:    "not_found",
				Message: "not found",
			}})
			return
		}

		// static assets (vite)
		if fileExists(s.cfg.PublicDir, path) {
			c.File(filepath.Join(s.cfg.PublicDir, filepath.Clean(path)))
			return
		}

		// SPA fallback
		s.serveIndex(c)
	})
}

func (s *Server) serveIndex(c *gin.Context) {
	c.File(filepath.Join(s.cfg.PublicDir, "index.html"))
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean(reqPath)

	// prevent path traversal
	if clean == "." || clean == "/" || strings.HasPrefix(clean, "..") {
		return false
	}

	fullPath := filepath.Join(publicDir, clean)

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
