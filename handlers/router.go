package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"student-manager-go/metrics"
	"student-manager-go/render"
)

// RouterOptions wires the handlers into a gin engine.
type RouterOptions struct {
	Page    *PageHandler
	API     *APIHandler
	Logger  *zap.Logger
	Metrics *metrics.Collector // nil disables /metrics
	// MetricsPath defaults to /metrics.
	MetricsPath string
}

// NewRouter builds the engine serving the page, the JSON API and metrics.
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(opts.Logger), gin.Recovery())
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	router.StaticFS("/static", http.FS(render.StaticFiles()))

	// Page routes
	router.GET("/", opts.Page.Show)
	router.POST("/students", opts.Page.Submit)
	router.POST("/students/:id/edit", opts.Page.Edit)
	router.GET("/students/:id/delete", opts.Page.ConfirmDelete)
	router.POST("/students/:id/delete", opts.Page.Delete)
	router.POST("/cancel", opts.Page.Cancel)
	router.POST("/reload", opts.Page.Reload)

	// Setup API routes
	api := router.Group("/api")
	{
		api.GET("/students", opts.API.GetAllStudents)
		api.POST("/students", opts.API.CreateStudent)
		api.PUT("/students/:id", opts.API.UpdateStudent)
		api.DELETE("/students/:id", opts.API.DeleteStudent)

		api.POST("/import/students", opts.API.ImportStudents)
		api.GET("/export/students", opts.API.ExportStudents)

		api.GET("/ping", PingHandler)
	}

	return router
}

// RequestLogger logs one line per request on logger.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request", fields...)
		default:
			logger.Debug("Request", fields...)
		}
	}
}
