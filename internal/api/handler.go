package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"clothing-store/internal/apperrors"
	"clothing-store/internal/report"
	"clothing-store/internal/service"
	"clothing-store/internal/store"
	"clothing-store/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	reports  *report.Service
	store    Pinger
	basePath string
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *service.CatalogService, reports *report.Service, st Pinger, basePath string) *Handler {
	return &Handler{
		catalog:  catalog,
		reports:  reports,
		store:    st,
		basePath: basePath,
		logger:   util.Named("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Idempotency-Key"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group(h.basePath)
	{
		reports := v1.Group("/reports")
		reports.GET("/brands-with-sales", h.brandsWithSales)
		reports.GET("/products-stock", h.productsSoldAndStock)
		reports.GET("/top-brands", h.topBrands)
		reports.GET("/top-users", h.topUsers)
		reports.GET("/product-ratings", h.averageRatings)
		reports.GET("/sales-by-date", h.salesByDate)
		reports.GET("/sold-quantity-by-date", h.soldQuantityByDate)

		// Documents are addressed by path or, as older clients do, by ?id=.
		v1.GET("/:collection", h.listDocuments)
		v1.POST("/:collection", h.createDocument)
		v1.PUT("/:collection", h.updateDocument)
		v1.DELETE("/:collection", h.deleteDocument)
		v1.GET("/:collection/:id", h.getDocument)
		v1.PUT("/:collection/:id", h.updateDocument)
		v1.DELETE("/:collection/:id", h.deleteDocument)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only while the store answers a ping.
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError renders err with the status of its code. Details are only
// exposed for codes that allow them.
func (h *Handler) respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	meta := apperrors.MetadataFor(code)

	body := gin.H{
		"code":  code,
		"error": meta.PublicMessage,
	}
	if typed := apperrors.As(err); typed != nil && meta.DetailsAllowed {
		body["details"] = typed.Message()
	}

	if meta.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(meta.HTTPStatus, body)
}

// reportError attaches a code to report failures.
func reportError(err error) error {
	switch {
	case errors.Is(err, report.ErrInvalidArgument):
		return apperrors.Wrap(apperrors.CodeValidation, err, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return apperrors.Wrap(apperrors.CodeDependency, err, "store unavailable")
	default:
		return apperrors.Wrap(apperrors.CodeInternal, err, "failed to compute report")
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
