package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"github.com/alkime/moodtales/internal/config"
)

// securityHeaders sets the response headers for audio and library files.
// HSTS is only sent in production, where the library server sits behind TLS.
func securityHeaders(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	hsts := cfg.Env == config.EnvProduction
	stsSeconds := int64(0)
	if hsts {
		stsSeconds = int64(cfg.HSTSMaxAge)
	}

	logger.Debug("Configured security middleware",
		"hsts_enabled", hsts,
		"csp_mode", cfg.CSPMode,
	)

	//nolint:exhaustruct // remaining options stay off
	return secure.New(secure.Config{
		STSSeconds:            stsSeconds,
		STSIncludeSubdomains:  hsts,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: config.BuildCSP(cfg.CSPMode),
		// the TUI's media server is reached on a loopback address
		IsDevelopment: cfg.Env != config.EnvProduction,
	})
}

// requestLogger logs each request at debug level. Media tokens act as
// credentials, so only a prefix reaches the log.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			"method", c.Request.Method,
			"path", redactPath(c.Request.URL.Path),
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed", time.Since(start),
		)
	}
}

func redactPath(path string) string {
	token, ok := strings.CutPrefix(path, "/media/")
	if !ok || len(token) <= 8 {
		return path
	}

	return "/media/" + token[:8] + "…"
}
