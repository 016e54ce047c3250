package handlers

import (
	"net/http"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type itemRequest struct {
	CategoryID  *uint           `json:"category_id"`
	Description string          `json:"description" validate:"max=200"`
	Size        string          `json:"size" validate:"max=20"`
	Color       string          `json:"color" validate:"max=40"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type orderRequest struct {
	OrderNumber    string             `json:"order_number" validate:"max=40"`
	CustomerID     *uint              `json:"customer_id"`
	CustomerName   string             `json:"customer_name" validate:"max=120"`
	Contact        string             `json:"customer_contact" validate:"max=120"`
	OrderDate      string             `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
	DeliveryDate   string             `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	Status         models.OrderStatus `json:"status"`
	Discount       decimal.Decimal    `json:"discount"`
	Source         string             `json:"source" validate:"max=60"`
	Notes          string             `json:"notes" validate:"max=2000"`
	Items          []itemRequest      `json:"items" validate:"dive"`
	InitialPayment *paymentRequest    `json:"initial_payment"`
}

func (r orderRequest) input(loc *time.Location) (services.OrderInput, error) {
	orderDate, err := parseDate(r.OrderDate, loc)
	if err != nil {
		return services.OrderInput{}, err
	}
	deliveryDate, err := parseDate(r.DeliveryDate, loc)
	if err != nil {
		return services.OrderInput{}, err
	}
	in := services.OrderInput{
		OrderNumber:  r.OrderNumber,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Contact:      r.Contact,
		OrderDate:    orderDate,
		DeliveryDate: deliveryDate,
		Status:       r.Status,
		Discount:     r.Discount,
		Source:       r.Source,
		Notes:        r.Notes,
		Items:        make([]services.ItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.ItemInput(it))
	}
	if r.InitialPayment != nil && !r.InitialPayment.Amount.IsZero() {
		p, err := r.InitialPayment.input(loc)
		if err != nil {
			return services.OrderInput{}, err
		}
		in.InitialPayment = &p
	}
	return in, nil
}

type orderListQuery struct {
	Status string `form:"status"`
	Start  string `form:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `form:"end" validate:"omitempty,datetime=2006-01-02"`
	Search string `form:"search" validate:"max=100"`
	Page   int    `form:"page" validate:"gte=0"`
	Limit  int    `form:"limit" validate:"gte=0,lte=100"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

type completeRequest struct {
	Done bool `json:"done"`
}

// deliveryRequest moves an order to another day. Year and Month name the
// calendar page the client shows and is sent back when the move fails.
type deliveryRequest struct {
	DeliveryDate string `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Year         int    `json:"year" validate:"omitempty,gte=1970,lte=9999"`
	Month        int    `json:"month" validate:"omitempty,gte=1,lte=12"`
}

func (h *APIHandler) CreateOrder(c *gin.Context) {
	var req orderRequest
	if !bind(c, &req) {
		return
	}
	in, err := req.input(h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	order, err := h.orderService.CreateOrder(c.Request.Context(), session(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *APIHandler) UpdateOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req orderRequest
	if !bind(c, &req) {
		return
	}
	in, err := req.input(h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	order, err := h.orderService.UpdateOrder(c.Request.Context(), session(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) GetOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) ListOrders(c *gin.Context) {
	var q orderListQuery
	if !bindQuery(c, &q) {
		return
	}
	start, _ := parseDate(q.Start, h.loc)
	end, _ := parseDate(q.End, h.loc)
	if end != nil {
		e := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &e
	}
	list, err := h.orderService.ListOrders(c.Request.Context(), session(c), models.OrderFilter{
		Status:    models.OrderStatus(q.Status),
		StartDate: start,
		EndDate:   end,
		Search:    q.Search,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIHandler) DeleteOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bind(c, &req) {
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), session(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) ToggleComplete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req completeRequest
	if !bind(c, &req) {
		return
	}
	order, err := h.orderService.ToggleComplete(c.Request.Context(), session(c), id, req.Done)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// MoveDelivery answers a failed move with the error and the reloaded calendar
// page, so the client can put the dragged order back.
func (h *APIHandler) MoveDelivery(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req deliveryRequest
	if !bind(c, &req) {
		return
	}
	date, err := parseDate(req.DeliveryDate, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery_date"})
		return
	}

	ctx := c.Request.Context()
	sess := session(c)
	moveErr := h.orderService.MoveDelivery(ctx, sess, id, *date)
	if moveErr == nil {
		c.Status(http.StatusNoContent)
		return
	}

	year, month := req.Year, time.Month(req.Month)
	if year == 0 || month == 0 {
		year, month = date.Year(), date.Month()
	}
	grid, err := h.orderService.Calendar(ctx, sess, year, month)
	if err != nil {
		respondError(c, moveErr)
		return
	}
	status := http.StatusInternalServerError
	msg := "could not move delivery date"
	switch {
	case services.IsValidation(moveErr):
		status, msg = http.StatusBadRequest, moveErr.Error()
	case isNotFound(moveErr):
		status, msg = http.StatusNotFound, "not found"
	}
	c.JSON(status, gin.H{"error": msg, "calendar": grid})
}
