package handlers

import (
	"net/http"
	"time"

	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type calendarQuery struct {
	Year  int `form:"year" validate:"omitempty,gte=1970,lte=9999"`
	Month int `form:"month" validate:"omitempty,gte=1,lte=12"`
}

// Calendar returns the month grid. Year and month default to the current
// month.
func (h *APIHandler) Calendar(c *gin.Context) {
	var q calendarQuery
	if !bindQuery(c, &q) {
		return
	}
	now := time.Now().In(h.loc)
	year, month := now.Year(), now.Month()
	if q.Year != 0 {
		year = q.Year
	}
	if q.Month != 0 {
		month = time.Month(q.Month)
	}
	grid, err := h.orderService.Calendar(c.Request.Context(), session(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

func period(c *gin.Context) (services.Period, bool) {
	p, err := services.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return p, true
}

func (h *APIHandler) FinancialStats(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	st, err := h.statsService.Financial(c.Request.Context(), session(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *APIHandler) OrderStats(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	st, err := h.statsService.Orders(c.Request.Context(), session(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *APIHandler) ProductStats(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	top, err := h.statsService.Products(c.Request.Context(), session(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}
