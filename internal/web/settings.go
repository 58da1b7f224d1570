package web

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketing-captain/internal/config"
)

type settingsResponse struct {
	Provider   string          `json:"provider"`
	Providers  []string        `json:"providers"`
	Keys       map[string]bool `json:"keys"`
	Configured bool            `json:"configured"`
}

type settingsRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// Keys are never echoed back, only whether each one is set.
func (s *Server) settingsView() settingsResponse {
	cur := s.providers.Settings()
	keys := make(map[string]bool, len(config.Providers()))
	for _, p := range config.Providers() {
		keys[p] = cur.KeyFor(p) != ""
	}
	return settingsResponse{
		Provider:   cur.Provider,
		Providers:  config.Providers(),
		Keys:       keys,
		Configured: s.providers.Configured(),
	}
}

// requireAdmin checks the bearer token. Provider settings are shared by all
// sessions.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.adminToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{Error: "settings are read-only: WEB_ADMIN_TOKEN is not set"})
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Error: "admin token required"})
			return
		}
		c.Next()
	}
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settingsView())
}

// putSettings selects a provider and optionally replaces its key. A blank
// key keeps the stored one.
func (s *Server) putSettings(c *gin.Context) {
	var body settingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid json body"})
		return
	}

	next := s.providers.Settings()
	next.Provider = strings.ToLower(strings.TrimSpace(body.Provider))
	if strings.TrimSpace(body.APIKey) != "" {
		var err error
		if next, err = next.WithKey(next.Provider, body.APIKey); err != nil {
			s.fail(c, err)
			return
		}
	}
	if err := next.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	if err := s.providers.Save(s.settingsFile, next); err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("settings saved", "provider", next.Provider)
	c.JSON(http.StatusOK, s.settingsView())
}
