package http

import (
	"net/http"

	"apex-hub/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSignals(group *echo.Group) {
	group.GET("", h.ListSignals)
	group.GET("/latest", h.LatestSignal)
	group.DELETE("/:id", h.DeleteSignal)
}

func (h *HttpAPIHandler) ListSignals(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.ListSignalsRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	signals, err := h.service.SignalService.List(ctx, *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "failed to list signals"))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", map[string]interface{}{"signals": signals}))
}

// LatestSignal responds with {"signal": null} when nothing matches.
func (h *HttpAPIHandler) LatestSignal(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.LatestSignalRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	signal, err := h.service.SignalService.Latest(ctx, req.Asset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "failed to get latest signal"))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", map[string]interface{}{"signal": signal}))
}

func (h *HttpAPIHandler) DeleteSignal(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.DeleteSignalRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid signal id"))
	}

	if err := h.service.SignalService.Delete(ctx, req.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "failed to delete signal"))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("deleted", dto.DeleteSignalResponse{Status: "deleted", ID: req.ID}))
}
