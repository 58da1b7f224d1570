// Package web serves the wizard over HTTP. Each browser tab owns one session
// created with POST /api/sessions; surface updates stream over a WebSocket.
package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketing-captain/internal/config"
	"marketing-captain/internal/llm"
	"marketing-captain/internal/llm/providers"
	"marketing-captain/internal/session"
	"marketing-captain/internal/wizard"
)

type Options struct {
	Sessions     *session.Store
	Providers    *providers.Holder
	SettingsFile string
	ExportDir    string
	Logger       *slog.Logger

	// AllowedOrigins limits browser callers; empty allows any origin.
	AllowedOrigins []string
	// AdminToken guards changes to the shared provider settings. Without it
	// the settings are read-only over HTTP.
	AdminToken string
}

type Server struct {
	sessions     *session.Store
	providers    *providers.Holder
	settingsFile string
	exportDir    string
	adminToken   string
	logger       *slog.Logger

	engine *gin.Engine
}

type apiError struct {
	Error string `json:"error"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "exports"
	}

	s := &Server{
		sessions:     opts.Sessions,
		providers:    opts.Providers,
		settingsFile: opts.SettingsFile,
		exportDir:    exportDir,
		adminToken:   opts.AdminToken,
		logger:       logger,
		engine:       gin.New(),
	}
	corsCfg := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowedOrigins
	}
	corsCfg.AddAllowHeaders("Authorization")

	s.engine.Use(gin.Recovery(), cors.New(corsCfg), s.withLogging())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/settings", s.getSettings)
		api.PUT("/settings", s.requireAdmin(), s.putSettings)

		api.POST("/sessions", s.createSession)

		sess := api.Group("/sessions/:id")
		{
			sess.GET("", s.getSession)
			sess.DELETE("", s.deleteSession)
			sess.PUT("/fields", s.putFields)
			sess.PUT("/styles", s.putStyles)
			sess.PUT("/documents/:kind", s.putDocument)
			sess.DELETE("/documents/:kind", s.deleteDocument)
			sess.POST("/steps/:step/run", s.runStep)
			sess.GET("/surfaces/:slot", s.getSurface)
			sess.POST("/export", s.export)
			sess.GET("/ws", s.stream)
		}
	}
}

func (s *Server) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	}
}

// fail writes err as JSON with the status its kind maps to.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, apiError{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, llm.ErrConfigurationMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, wizard.ErrClosed):
		return http.StatusGone
	case errors.Is(err, wizard.ErrInvalidField),
		errors.Is(err, wizard.ErrInvalidStyle),
		errors.Is(err, wizard.ErrMissingProduct),
		errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, wizard.ErrUnknownSlot),
		errors.Is(err, wizard.ErrUnknownDocument),
		errors.Is(err, wizard.ErrNothingToSave),
		errors.Is(err, config.ErrUnknownProvider):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
