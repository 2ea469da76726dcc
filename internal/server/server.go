package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/auth"
	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core"
)

type Server struct {
	Dashboard *core.Dashboard
	Gate      *auth.Gate
	Auth      config.AuthConfig
	Logger    *zap.Logger
}

func NewServer(d *core.Dashboard, gate *auth.Gate, authCfg config.AuthConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Dashboard: d,
		Gate:      gate,
		Auth:      authCfg,
		Logger:    logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	open := func(c *gin.Context) { c.Next() }
	guard := open
	if s.Auth.Enabled {
		guard = s.Gate.Middleware()
	}
	ingestGuard := open
	if s.Auth.Enabled && s.Auth.ProtectIngest {
		ingestGuard = guard
	}

	api.POST("/login", s.Login)
	api.POST("/logout", s.Logout)
	// New accounts come from a signed in user or the CLI.
	api.POST("/register", guard, s.Register)

	api.POST("/predictions", ingestGuard, s.Ingest)

	private := api.Group("", guard)
	private.GET("/predictions", s.ListPredictions)
	private.DELETE("/predictions/:id", s.DeletePrediction)
	private.GET("/predictions/:id/qr", s.PredictionQR)
	private.GET("/predictions/:id/report", s.RecordReport)
	private.POST("/predictions/:id/report", s.RecordReport)
	private.GET("/reports/aggregate", s.AggregateReport)
	private.POST("/reports/aggregate", s.AggregateReport)
	private.GET("/analysis", s.Analysis)
	private.GET("/export.csv", s.ExportCSV)
	private.GET("/catalog/:class", s.CatalogLookup)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}
