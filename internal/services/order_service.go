package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderInput is a new or edited order as submitted by a client.
type OrderInput struct {
	OrderNumber    string
	CustomerID     *uint
	CustomerName   string
	Contact        string
	OrderDate      *time.Time
	DeliveryDate   *time.Time
	Status         models.OrderStatus
	Discount       decimal.Decimal
	Source         string
	Notes          string
	Items          []ItemInput
	InitialPayment *PaymentInput
}

// OrderDetails is an order with its items, payments and payment summary.
type OrderDetails struct {
	*models.Order
	Summary PaymentSummary `json:"summary"`
}

type OrderList struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, sess Session, in OrderInput) (*OrderDetails, error)
	UpdateOrder(ctx context.Context, sess Session, id uint, in OrderInput) (*OrderDetails, error)
	GetOrder(ctx context.Context, sess Session, id uint) (*OrderDetails, error)
	ListOrders(ctx context.Context, sess Session, filter models.OrderFilter) (*OrderList, error)
	DeleteOrder(ctx context.Context, sess Session, id uint) error
	UpdateStatus(ctx context.Context, sess Session, id uint, status models.OrderStatus) (*models.Order, error)
	// ToggleComplete is the calendar checkbox.
	ToggleComplete(ctx context.Context, sess Session, id uint, done bool) (*models.Order, error)
	MoveDelivery(ctx context.Context, sess Session, id uint, date time.Time) error
	Calendar(ctx context.Context, sess Session, year int, month time.Month) (*MonthGrid, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	drafts       DraftStore
	notifier     NotificationService
	cache        Cache
	feed         *changeFeed
	opts         Options
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	drafts DraftStore,
	notifier NotificationService,
	cache Cache,
	pub ChangePublisher,
	opts Options,
) OrderService {
	if notifier == nil {
		notifier = NewWhatsAppService(nil)
	}
	return &orderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		drafts:       drafts,
		notifier:     notifier,
		cache:        cache,
		feed:         newChangeFeed(cache, pub),
		opts:         opts.withDefaults(),
	}
}

// ValidateOrderInput checks the customer and items of in and returns the
// built items with their totals. Nothing is written.
func ValidateOrderInput(in OrderInput) ([]models.OrderItem, Totals, error) {
	if in.CustomerID == nil && strings.TrimSpace(in.CustomerName) == "" {
		return nil, Totals{}, ErrCustomerRequired
	}
	items := BuildItems(in.Items)
	totals, err := ValidateItems(items, in.Discount)
	if err != nil {
		return nil, Totals{}, err
	}
	return items, totals, nil
}

// GenerateOrderNumber returns ORD-YYYYMMDD-NNN with a random suffix.
func GenerateOrderNumber(at time.Time) string {
	return fmt.Sprintf("ORD-%s-%03d", at.Format("20060102"), rand.Intn(1000))
}

const orderNumberAttempts = 5

func (s *orderService) CreateOrder(ctx context.Context, sess Session, in OrderInput) (*OrderDetails, error) {
	items, totals, err := ValidateOrderInput(in)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.StatusScheduled
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	order := &models.Order{
		UserID:       sess.UserID,
		CustomerID:   in.CustomerID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Contact:      strings.TrimSpace(in.Contact),
		OrderDate:    s.dateOrToday(in.OrderDate),
		DeliveryDate: s.date(in.DeliveryDate),
		Status:       status,
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Total:        totals.Total,
		Source:       strings.TrimSpace(in.Source),
		Notes:        strings.TrimSpace(in.Notes),
		Items:        items,
	}
	if err := s.resolveCustomer(ctx, sess, order); err != nil {
		return nil, err
	}

	var initial *models.Payment
	if in.InitialPayment != nil && !in.InitialPayment.Amount.IsZero() {
		initial, err = buildPayment(sess.UserID, 0, *in.InitialPayment, s.opts)
		if err != nil {
			return nil, err
		}
		if err := ValidatePayment(initial.Amount, totals.Total); err != nil {
			return nil, err
		}
	}

	custom := strings.TrimSpace(in.OrderNumber)
	for attempt := 1; ; attempt++ {
		order.OrderNumber = custom
		if custom == "" {
			order.OrderNumber = GenerateOrderNumber(s.opts.now())
		}
		err = s.orderRepo.CreateWithItems(ctx, order, initial)
		if err == nil {
			break
		}
		if custom != "" || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == orderNumberAttempts {
			slog.ErrorContext(ctx, "create order failed", "user_id", sess.UserID, "err", err)
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, validation("order number %s already exists", order.OrderNumber)
			}
			return nil, fmt.Errorf("create order: %w", err)
		}
		order.ID = 0
		if initial != nil {
			initial.ID = 0
		}
	}

	if s.drafts != nil {
		if err := s.drafts.DeleteDraft(ctx, sess.UserID); err != nil {
			slog.WarnContext(ctx, "clear draft failed", "user_id", sess.UserID, "err", err)
		}
	}
	s.feed.record(ctx, models.EntityOrders, models.OpInsert, order.ID, sess.UserID)
	if initial != nil {
		s.feed.record(ctx, models.EntityPayments, models.OpInsert, initial.ID, sess.UserID)
	}

	return s.GetOrder(ctx, sess, order.ID)
}

func (s *orderService) UpdateOrder(ctx context.Context, sess Session, id uint, in OrderInput) (*OrderDetails, error) {
	items, totals, err := ValidateOrderInput(in)
	if err != nil {
		return nil, err
	}
	current, err := s.orderRepo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}

	status := current.Status
	if in.Status != "" && in.Status != current.Status {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if !CanTransition(current.Status, in.Status) {
			return nil, ErrInvalidTransition
		}
		status = in.Status
	}

	order := &models.Order{
		ID:           id,
		UserID:       sess.UserID,
		OrderNumber:  current.OrderNumber,
		CustomerID:   in.CustomerID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Contact:      strings.TrimSpace(in.Contact),
		OrderDate:    current.OrderDate,
		DeliveryDate: s.date(in.DeliveryDate),
		Status:       status,
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Total:        totals.Total,
		Source:       strings.TrimSpace(in.Source),
		Notes:        strings.TrimSpace(in.Notes),
		Items:        items,
	}
	if d := s.date(in.OrderDate); d != nil {
		order.OrderDate = *d
	}
	if err := s.resolveCustomer(ctx, sess, order); err != nil {
		return nil, err
	}

	err = s.orderRepo.UpdateWithItems(ctx, order, func(_ *models.Order, paid decimal.Decimal) error {
		if order.Total.LessThan(paid) {
			return ErrTotalBelowPaid
		}
		return nil
	})
	if err != nil {
		if IsValidation(err) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		slog.ErrorContext(ctx, "update order failed", "order_id", id, "err", err)
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.feed.record(ctx, models.EntityOrders, models.OpUpdate, id, sess.UserID)
	if status != current.Status {
		s.statusChanged(ctx, sess, order)
	}

	return s.GetOrder(ctx, sess, id)
}

func (s *orderService) GetOrder(ctx context.Context, sess Session, id uint) (*OrderDetails, error) {
	order, err := s.orderRepo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetails{Order: order, Summary: Balance(order.Total, order.Payments)}, nil
}

func (s *orderService) ListOrders(ctx context.Context, sess Session, f models.OrderFilter) (*OrderList, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if f.Limit <= 0 {
		f.Limit = repository.DefaultPageSize
	}
	if f.Limit > repository.MaxPageSize {
		f.Limit = repository.MaxPageSize
	}
	if f.Page < 0 {
		f.Page = 0
	}

	key := QueryKey{Entity: models.EntityOrders, UserID: sess.UserID, Params: []string{
		"list", string(f.Status), formatDatePtr(f.StartDate), formatDatePtr(f.EndDate),
		strings.ToLower(strings.TrimSpace(f.Search)), strconv.Itoa(f.Page), strconv.Itoa(f.Limit),
	}}
	return cached(ctx, s.cache, s.opts.CacheTTL, key, func() (*OrderList, error) {
		orders, total, err := s.orderRepo.List(ctx, sess.UserID, f)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		if orders == nil {
			orders = []models.Order{}
		}
		return &OrderList{Orders: orders, Total: total, Page: f.Page, Limit: f.Limit}, nil
	})
}

func (s *orderService) DeleteOrder(ctx context.Context, sess Session, id uint) error {
	if err := s.orderRepo.Delete(ctx, sess.UserID, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.ErrorContext(ctx, "delete order failed", "order_id", id, "err", err)
		}
		return err
	}
	s.feed.record(ctx, models.EntityOrders, models.OpDelete, id, sess.UserID)
	return nil
}

func (s *orderService) UpdateStatus(ctx context.Context, sess Session, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.orderRepo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, status) {
		return nil, ErrInvalidTransition
	}
	return s.setStatus(ctx, sess, order, status)
}

func (s *orderService) ToggleComplete(ctx context.Context, sess Session, id uint, done bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	target, err := ToggleTarget(order.Status, done)
	if err != nil {
		return nil, err
	}
	return s.setStatus(ctx, sess, order, target)
}

func (s *orderService) setStatus(ctx context.Context, sess Session, order *models.Order, status models.OrderStatus) (*models.Order, error) {
	if order.Status == status {
		return order, nil
	}
	if err := s.orderRepo.UpdateStatus(ctx, sess.UserID, order.ID, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	order.Status = status
	s.feed.record(ctx, models.EntityOrders, models.OpUpdate, order.ID, sess.UserID)
	s.statusChanged(ctx, sess, order)
	return order, nil
}

// statusChanged notifies the customer. It never fails the caller.
func (s *orderService) statusChanged(ctx context.Context, sess Session, order *models.Order) {
	if order.Status != models.StatusReady {
		return
	}
	phone := order.Contact
	if order.CustomerID != nil && s.customerRepo != nil {
		c, err := s.customerRepo.GetByID(ctx, sess.UserID, *order.CustomerID)
		if err != nil {
			slog.WarnContext(ctx, "load customer for notification failed", "order_id", order.ID, "err", err)
		} else if c.Phone != "" {
			phone = c.Phone
		}
	}
	s.notifier.OrderStatusChanged(ctx, order, phone)
}

func (s *orderService) MoveDelivery(ctx context.Context, sess Session, id uint, date time.Time) error {
	d := s.date(&date)
	if d == nil {
		return validation("delivery date required")
	}
	if err := s.orderRepo.UpdateDeliveryDate(ctx, sess.UserID, id, *d); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.ErrorContext(ctx, "move delivery failed", "order_id", id, "err", err)
		}
		return err
	}
	s.feed.record(ctx, models.EntityOrders, models.OpUpdate, id, sess.UserID)
	return nil
}

func (s *orderService) Calendar(ctx context.Context, sess Session, year int, month time.Month) (*MonthGrid, error) {
	if month < time.January || month > time.December {
		return nil, validation("month must be between 1 and 12")
	}
	key := QueryKey{Entity: models.EntityCalendar, UserID: sess.UserID, Params: []string{
		strconv.Itoa(year), strconv.Itoa(int(month)),
	}}
	return cached(ctx, s.cache, s.opts.CacheTTL, key, func() (*MonthGrid, error) {
		grid := BuildMonthGrid(year, month, s.opts.Location)
		end := grid.End.AddDate(0, 0, 1).Add(-time.Nanosecond)
		orders, err := s.orderRepo.GetByDeliveryRange(ctx, sess.UserID, grid.Start, end, s.opts.CalendarStatuses)
		if err != nil {
			return nil, fmt.Errorf("load calendar orders: %w", err)
		}
		grid.Place(orders)
		return &grid, nil
	})
}

// resolveCustomer checks the referenced customer belongs to the user and
// fills in the display name when none was given.
func (s *orderService) resolveCustomer(ctx context.Context, sess Session, order *models.Order) error {
	if order.CustomerID == nil || s.customerRepo == nil {
		return nil
	}
	c, err := s.customerRepo.GetByID(ctx, sess.UserID, *order.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation("customer %d not found", *order.CustomerID)
		}
		return err
	}
	if order.CustomerName == "" {
		order.CustomerName = c.FullName()
	}
	if order.Contact == "" {
		order.Contact = c.Phone
	}
	return nil
}

// date keeps the calendar day of t at midnight in the configured location.
func (s *orderService) date(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Location)
	return &d
}

func (s *orderService) dateOrToday(t *time.Time) time.Time {
	if d := s.date(t); d != nil {
		return *d
	}
	return s.opts.today()
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
