package port

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Jak3Gil/melvinport/internal/auth"
	"github.com/Jak3Gil/melvinport/internal/observability"
)

// diagnosticsRouter builds the health, readiness, status, and metrics
// surface. Status is guarded when a diagnostics token is configured.
func (s *Service) diagnosticsRouter() *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(s.cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": "portd",
			"version":   "0.0.1",
		})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":     true,
			"uptime":    time.Since(s.started).String(),
			"component": "portd",
			"version":   "0.0.1",
		})
	})

	status := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"cycles":    s.cycles.Load(),
			"ingested":  s.ingested.Load(),
			"delivered": s.delivered.Load(),
			"discards":  s.discards.Load(),
		})
	}
	if token := strings.TrimSpace(s.cfg.DiagToken); token != "" {
		r.GET("/status", auth.TokenRequired(auth.StaticToken{Token: token}), status)
	} else {
		r.GET("/status", status)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// serveDiagnostics serves the diagnostics surface on DiagnosticsAddr
// until ctx is canceled.
func (s *Service) serveDiagnostics(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.DiagnosticsAddr, Handler: s.diagnosticsRouter()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.cfg.DiagnosticsAddr).Msg("diagnostics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
