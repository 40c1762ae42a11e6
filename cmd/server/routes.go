package main

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andybot/andybot-go/internal/sentry"
	"github.com/andybot/andybot-go/internal/webhook"
)

// setupRoutes builds the Gin engine with the webhook, health and metrics
// endpoints.
func setupRoutes(wh *webhook.Handler, registry *prometheus.Registry) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if sentry.IsEnabled() {
		engine.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	engine.GET("/webhook", wh.Verify)
	engine.POST("/webhook", wh.Receive)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))

	return engine
}
