package http

import (
	"net/http"

	"apex-hub/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.POST("/retention/run", h.RunRetention)
	}
}

func (h *HttpAPIHandler) RunRetention(c echo.Context) error {
	deleted, err := h.service.SchedulerService.RunRetention(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, err.Error()))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("retention completed", map[string]int64{"deleted": deleted}))
}
