package handlers

import (
	"context"
	"net/http"
	"time"

	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	userService     services.UserService
	orderService    services.OrderService
	paymentService  services.PaymentService
	customerService services.CustomerService
	categoryService services.CategoryService
	noteService     services.NoteService
	draftService    services.DraftService
	statsService    services.StatsService
	changes         services.ChangeSubscriber
	health          func(ctx context.Context) error
	loc             *time.Location
}

// Services groups the dependencies of APIHandler. Changes and Health may be
// nil.
type Services struct {
	Users      services.UserService
	Orders     services.OrderService
	Payments   services.PaymentService
	Customers  services.CustomerService
	Categories services.CategoryService
	Notes      services.NoteService
	Drafts     services.DraftService
	Stats      services.StatsService
	Changes    services.ChangeSubscriber
	Health     func(ctx context.Context) error
}

func NewAPIHandler(s Services, loc *time.Location) *APIHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &APIHandler{
		userService:     s.Users,
		orderService:    s.Orders,
		paymentService:  s.Payments,
		customerService: s.Customers,
		categoryService: s.Categories,
		noteService:     s.Notes,
		draftService:    s.Drafts,
		statsService:    s.Stats,
		changes:         s.Changes,
		health:          s.Health,
		loc:             loc,
	}
}

// Register mounts every route on r.
func (h *APIHandler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
	}

	api := r.Group("/api", RequireAuth(h.userService))
	{
		api.POST("/auth/signout", h.SignOut)
		api.GET("/auth/me", h.Me)

		api.GET("/orders", h.ListOrders)
		api.POST("/orders", h.CreateOrder)
		api.GET("/orders/:id", h.GetOrder)
		api.PUT("/orders/:id", h.UpdateOrder)
		api.DELETE("/orders/:id", h.DeleteOrder)
		api.PATCH("/orders/:id/status", h.UpdateStatus)
		api.PATCH("/orders/:id/complete", h.ToggleComplete)
		api.PATCH("/orders/:id/delivery", h.MoveDelivery)
		api.GET("/orders/:id/payments", h.ListOrderPayments)
		api.POST("/orders/:id/payments", h.RecordPayment)

		api.GET("/payments", h.ListPayments)
		api.DELETE("/payments/:id", h.DeletePayment)
		api.GET("/expenses", h.ListExpenses)
		api.POST("/expenses", h.RecordExpense)
		api.DELETE("/expenses/:id", h.DeleteExpense)

		api.GET("/customers", h.ListCustomers)
		api.POST("/customers", h.CreateCustomer)
		api.GET("/customers/summary", h.CustomerSummary)
		api.GET("/customers/export.csv", h.ExportCustomers)
		api.GET("/customers/:id", h.GetCustomer)
		api.PUT("/customers/:id", h.UpdateCustomer)
		api.GET("/customers/:id/history", h.CustomerHistory)

		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)

		api.GET("/calendar", h.Calendar)
		api.GET("/stats/financial", h.FinancialStats)
		api.GET("/stats/orders", h.OrderStats)
		api.GET("/stats/products", h.ProductStats)

		api.GET("/notes", h.ListNotes)
		api.POST("/notes", h.AddNote)
		api.DELETE("/notes/:id", h.DeleteNote)

		api.GET("/draft", h.GetDraft)
		api.PUT("/draft", h.SaveDraft)
		api.DELETE("/draft", h.DiscardDraft)

		api.GET("/events", h.Events)
	}
}

func (h *APIHandler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
