package handlers

import (
	"net/http"
	"time"

	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"max=8"`
	TenderedAmount decimal.Decimal `json:"tendered_amount"`
	Method         string          `json:"method" validate:"max=40"`
	PaymentDate    string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Reference      string          `json:"reference" validate:"max=100"`
	Notes          string          `json:"notes" validate:"max=500"`
}

func (r paymentRequest) input(loc *time.Location) (services.PaymentInput, error) {
	date, err := parseDate(r.PaymentDate, loc)
	if err != nil {
		return services.PaymentInput{}, err
	}
	return services.PaymentInput{
		Amount:         r.Amount,
		Currency:       r.Currency,
		TenderedAmount: r.TenderedAmount,
		Method:         r.Method,
		PaymentDate:    date,
		Reference:      r.Reference,
		Notes:          r.Notes,
	}, nil
}

type expenseRequest struct {
	OrderID   *uint           `json:"order_id"`
	Concept   string          `json:"concept" validate:"required,max=200"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency" validate:"max=8"`
	Reference string          `json:"reference" validate:"max=100"`
}

func (h *APIHandler) RecordPayment(c *gin.Context) {
	orderID, ok := idParam(c)
	if !ok {
		return
	}
	var req paymentRequest
	if !bind(c, &req) {
		return
	}
	in, err := req.input(h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date"})
		return
	}
	p, err := h.paymentService.RecordPayment(c.Request.Context(), session(c), orderID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *APIHandler) ListOrderPayments(c *gin.Context) {
	orderID, ok := idParam(c)
	if !ok {
		return
	}
	list, err := h.paymentService.ListOrderPayments(c.Request.Context(), session(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// dateRange reads the optional start and end query parameters.
func (h *APIHandler) dateRange(c *gin.Context) (services.DateRange, bool) {
	start, ok := dateQuery(c, "start", h.loc, false)
	if !ok {
		return services.DateRange{}, false
	}
	end, ok := dateQuery(c, "end", h.loc, true)
	if !ok {
		return services.DateRange{}, false
	}
	return services.DateRange{Start: start, End: end}, true
}

func (h *APIHandler) ListPayments(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	list, err := h.paymentService.ListPayments(c.Request.Context(), session(c), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIHandler) DeletePayment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.paymentService.DeletePayment(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) RecordExpense(c *gin.Context) {
	var req expenseRequest
	if !bind(c, &req) {
		return
	}
	e, err := h.paymentService.RecordExpense(c.Request.Context(), session(c), services.ExpenseInput{
		OrderID:   req.OrderID,
		Concept:   req.Concept,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *APIHandler) ListExpenses(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	list, err := h.paymentService.ListExpenses(c.Request.Context(), session(c), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIHandler) DeleteExpense(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.paymentService.DeleteExpense(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
