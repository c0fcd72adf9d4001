package api

import (
	"net/http"
	"time"

	"clothing-store/internal/report"

	"github.com/gin-gonic/gin"
)

func (h *Handler) brandsWithSales(c *gin.Context) {
	rows, err := h.reports.BrandsWithSales(c.Request.Context())
	h.respondReport(c, rows, err)
}

func (h *Handler) productsSoldAndStock(c *gin.Context) {
	rows, err := h.reports.ProductsSoldAndStock(c.Request.Context())
	h.respondReport(c, rows, err)
}

func (h *Handler) topBrands(c *gin.Context) {
	rows, err := h.reports.TopBrands(c.Request.Context())
	h.respondReport(c, rows, err)
}

func (h *Handler) topUsers(c *gin.Context) {
	rows, err := h.reports.TopUsers(c.Request.Context())
	h.respondReport(c, rows, err)
}

func (h *Handler) averageRatings(c *gin.Context) {
	rows, err := h.reports.AverageRatings(c.Request.Context())
	h.respondReport(c, rows, err)
}

func (h *Handler) salesByDate(c *gin.Context) {
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	rows, err := h.reports.SalesByDate(c.Request.Context(), date)
	h.respondReport(c, rows, err)
}

func (h *Handler) soldQuantityByDate(c *gin.Context) {
	date, ok := h.dateQuery(c)
	if !ok {
		return
	}
	total, err := h.reports.SoldQuantityByDate(c.Request.Context(), date)
	h.respondReport(c, total, err)
}

// dateQuery parses ?date= and answers 400 itself when it is missing or
// malformed, so the report never runs.
func (h *Handler) dateQuery(c *gin.Context) (time.Time, bool) {
	date, err := report.ParseDate(c.Query("date"))
	if err != nil {
		h.respondError(c, reportError(err))
		return time.Time{}, false
	}
	return date, true
}

func (h *Handler) respondReport(c *gin.Context, body any, err error) {
	if err != nil {
		h.respondError(c, reportError(err))
		return
	}
	c.JSON(http.StatusOK, body)
}
