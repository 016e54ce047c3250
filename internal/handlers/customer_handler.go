package handlers

import (
	"bytes"
	"net/http"

	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type customerRequest struct {
	FirstName              string   `json:"first_name" validate:"max=80"`
	LastName               string   `json:"last_name" validate:"max=80"`
	Phone                  string   `json:"phone" validate:"max=40"`
	Email                  string   `json:"email" validate:"omitempty,email"`
	Tags                   []string `json:"tags" validate:"max=20,dive,max=40"`
	Notes                  string   `json:"notes" validate:"max=2000"`
	PreferredSize          string   `json:"preferred_size" validate:"max=20"`
	PreferredPaymentMethod string   `json:"preferred_payment_method" validate:"max=40"`
	IsActive               *bool    `json:"is_active"`
}

func (r customerRequest) input() services.CustomerInput {
	return services.CustomerInput(r)
}

type customerListQuery struct {
	Filter string `form:"filter" validate:"omitempty,oneof=todos vip inactivos nuevos"`
	Sort   string `form:"sort" validate:"omitempty,oneof=ventas pedidos reciente nombre"`
	Search string `form:"search" validate:"max=100"`
}

func (q customerListQuery) query() services.CustomerQuery {
	return services.CustomerQuery{
		Filter: services.CustomerFilter(q.Filter),
		Sort:   services.CustomerSort(q.Sort),
		Search: q.Search,
	}
}

func (h *APIHandler) ListCustomers(c *gin.Context) {
	var q customerListQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.customerService.ListCustomers(c.Request.Context(), session(c), q.query())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIHandler) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if !bind(c, &req) {
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), session(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *APIHandler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req customerRequest
	if !bind(c, &req) {
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), session(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *APIHandler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	view, err := h.customerService.GetCustomer(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) CustomerSummary(c *gin.Context) {
	sum, err := h.customerService.Summary(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *APIHandler) ExportCustomers(c *gin.Context) {
	var q customerListQuery
	if !bindQuery(c, &q) {
		return
	}
	var buf bytes.Buffer
	if err := h.customerService.ExportCSV(c.Request.Context(), session(c), q.query(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="clientes.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *APIHandler) CustomerHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	history, err := h.customerService.History(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

func (h *APIHandler) ListCategories(c *gin.Context) {
	list, err := h.categoryService.ListCategories(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bind(c, &req) {
		return
	}
	category, err := h.categoryService.CreateCategory(c.Request.Context(), session(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}
