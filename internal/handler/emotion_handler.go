package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/service"
	"github.com/locvowork/feeltime/internal/service/serviceutils"
	"github.com/locvowork/feeltime/pkg/simpleexcel"
)

type EmotionHandler struct {
	svc service.EmotionService
}

func NewEmotionHandler(svc service.EmotionService) *EmotionHandler {
	return &EmotionHandler{svc: svc}
}

func (h *EmotionHandler) ClockHandler(c echo.Context) error {
	var req service.ClockRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	id, err := h.svc.Clock(c.Request().Context(), req)
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to record emotion", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Emotion recorded successfully", map[string]string{"id": id})
}

func (h *EmotionHandler) SummaryHandler(c echo.Context) error {
	summary, err := h.svc.Summary(c.Request().Context(), rangeQuery(c))
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to get summary", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Summary retrieved successfully", summary)
}

func (h *EmotionHandler) RecentHandler(c echo.Context) error {
	rows, err := h.svc.Recent(c.Request().Context(), service.RecentQuery{
		EmployeeID: c.QueryParam("employeeId"),
		Limit:      c.QueryParam("limit"),
	})
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to get recent logs", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Recent logs retrieved successfully", rows)
}

func (h *EmotionHandler) LogsHandler(c echo.Context) error {
	rows, err := h.svc.Logs(c.Request().Context(), rangeQuery(c))
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to get logs", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Logs retrieved successfully", rows)
}

func (h *EmotionHandler) DepartmentsHandler(c echo.Context) error {
	depts, err := h.svc.Departments(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to list departments", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Departments listed successfully", depts)
}

func (h *EmotionHandler) DepartmentLogsHandler(c echo.Context) error {
	rows, err := h.svc.DepartmentLogs(c.Request().Context(), service.DepartmentQuery{
		DepartmentID: c.QueryParam("departmentId"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
	})
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to get department logs", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Department logs retrieved successfully", rows)
}

func (h *EmotionHandler) TrendsHandler(c echo.Context) error {
	trends, err := h.svc.Trends(c.Request().Context(), service.TrendsQuery{
		EmployeeID: c.QueryParam("employeeId"),
		From:       c.QueryParam("from"),
		To:         c.QueryParam("to"),
		Days:       c.QueryParam("days"),
	})
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to get trends", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Trends retrieved successfully", trends)
}

func (h *EmotionHandler) ExportHandler(c echo.Context) error {
	file, err := h.svc.Export(c.Request().Context(), service.ExportQuery{
		EmployeeID:   c.QueryParam("employeeId"),
		DepartmentID: c.QueryParam("departmentId"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
	})
	if err != nil {
		return serviceutils.ResponseError(c, serviceutils.StatusFromError(err), "Failed to generate Excel file", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(file.Data)))
	return c.Blob(http.StatusOK, simpleexcel.ContentType, file.Data)
}

func (h *EmotionHandler) HealthHandler(c echo.Context) error {
	if err := h.svc.Health(c.Request().Context()); err != nil {
		return serviceutils.ResponseError(c, http.StatusServiceUnavailable, "Storage is unhealthy", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "ok", map[string]string{"status": "ok"})
}

func (h *EmotionHandler) ReadyHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "ready", map[string]bool{"ready": true})
}

// ErrorHandler renders errors escaping the handlers, such as unknown routes, in the API envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(he.Code)
		if status == http.StatusNotFound {
			err = domain.ErrNotFound
		}
	}

	_ = serviceutils.ResponseError(c, status, message, err)
}

func rangeQuery(c echo.Context) service.RangeQuery {
	return service.RangeQuery{
		EmployeeID: c.QueryParam("employeeId"),
		From:       c.QueryParam("from"),
		To:         c.QueryParam("to"),
	}
}
