package http

import (
	"context"

	"apex-hub/config"
	"apex-hub/internal/service"
	"apex-hub/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	cfg       *config.Config
	service   *service.Service
	gatherer  prometheus.Gatherer
}

func NewHttpAPIHandler(
	ctx context.Context,
	echo *echo.Echo,
	validator *goValidator.Validate,
	cfg *config.Config,
	service *service.Service,
	gatherer prometheus.Gatherer,
) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		cfg:       cfg,
		service:   service,
		gatherer:  gatherer,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	webhookLimiter := middleware.NewRateLimiterMiddleware(h.cfg.API.RateLimitPerSecond, h.cfg.API.RateLimitBurst)
	h.echo.POST("/webhook", h.ReceiveWebhook, webhookLimiter)

	h.SetupSignals(h.echo.Group("/signals"))

	base := h.echo.Group("/api")
	base.GET("/stats", h.GetStats)
	h.SetupJobs(base)

	h.echo.GET("/health", h.Health)
	h.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}
