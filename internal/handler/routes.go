package handler

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the probes and the /api group.
func RegisterRoutes(e *echo.Echo, h *EmotionHandler) {
	e.GET("/healthz", h.HealthHandler)
	e.GET("/readyz", h.ReadyHandler)

	api := e.Group("/api")
	api.POST("/clock", h.ClockHandler)
	api.GET("/summary", h.SummaryHandler)
	api.GET("/recent", h.RecentHandler)
	api.GET("/logs", h.LogsHandler)
	api.GET("/departments", h.DepartmentsHandler)
	api.GET("/logs/departments", h.DepartmentLogsHandler)
	api.GET("/trends", h.TrendsHandler)
	api.GET("/export", h.ExportHandler)
}
