package http

import (
	"errors"
	"io"
	"net/http"

	"apex-hub/internal/dto"
	"apex-hub/internal/service"

	"github.com/labstack/echo/v4"
)

// ReceiveWebhook takes a TradingView alert. Enrichment runs after the
// response is sent, so failures past this point are never reported here.
func (h *HttpAPIHandler) ReceiveWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("failed to read request body"))
	}

	decision, err := h.service.IntakeService.Submit(c.Request().Context(), body)
	switch {
	case errors.Is(err, service.ErrMalformedInput):
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid JSON payload"))
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, service.ErrDispatcherStopped):
		return c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(http.StatusServiceUnavailable, "signal queue is busy, retry later"))
	case err != nil:
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "failed to submit signal"))
	}

	message := "signal received"
	if !decision.Accepted() {
		message = "signal ignored"
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(message, decision))
}
