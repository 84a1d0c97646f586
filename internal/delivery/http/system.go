package http

import (
	"net/http"

	"apex-hub/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) GetStats(c echo.Context) error {
	stats, err := h.service.SignalService.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "failed to compute stats"))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", stats))
}

func (h *HttpAPIHandler) Health(c echo.Context) error {
	health, err := h.service.SignalService.Health(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(http.StatusServiceUnavailable, "storage unavailable"))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", health))
}
