package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airport_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type OrderRepository interface {
	// CreateWithItems inserts the order, its items and an optional first
	// payment in one transaction.
	CreateWithItems(ctx context.Context, order *models.Order, initial *models.Payment) error
	// UpdateWithItems locks the stored order, runs check with the amount
	// already paid, then rewrites the order row and replaces all of its items
	// in one transaction. A check error leaves the order untouched.
	UpdateWithItems(ctx context.Context, order *models.Order, check PaymentCheck) error
	GetByID(ctx context.Context, userID, id uint) (*models.Order, error)
	List(ctx context.Context, userID uint, filter models.OrderFilter) ([]models.Order, int64, error)
	Delete(ctx context.Context, userID, id uint) error
	UpdateStatus(ctx context.Context, userID, id uint, status models.OrderStatus) error
	UpdateDeliveryDate(ctx context.Context, userID, id uint, date time.Time) error
	GetByDeliveryRange(ctx context.Context, userID uint, start, end time.Time, statuses []models.OrderStatus) ([]models.Order, error)
	GetByCreatedRange(ctx context.Context, userID uint, start, end time.Time, withItems bool) ([]models.Order, error)
	GetByCustomer(ctx context.Context, userID, customerID uint, limit int) ([]models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateWithItems(ctx context.Context, order *models.Order, initial *models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Payments").Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := insertItems(tx, order.ID, order.Items); err != nil {
			return err
		}
		if initial != nil {
			initial.OrderID = order.ID
			if err := tx.Create(initial).Error; err != nil {
				return fmt.Errorf("insert initial payment: %w", err)
			}
			order.Payments = []models.Payment{*initial}
		}
		return recomputeCustomer(tx, order.UserID, order.CustomerID)
	})
}

func (r *orderRepository) UpdateWithItems(ctx context.Context, order *models.Order, check PaymentCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", order.ID, order.UserID).
			First(&prev).Error; err != nil {
			return notFound(err)
		}
		if check != nil {
			paid, err := paidForOrder(tx, order.ID)
			if err != nil {
				return err
			}
			if err := check(order, paid); err != nil {
				return err
			}
		}

		err := tx.Model(&models.Order{}).
			Where("id = ? AND user_id = ?", order.ID, order.UserID).
			Updates(map[string]any{
				"customer_id":   order.CustomerID,
				"customer_name": order.CustomerName,
				"contact":       order.Contact,
				"order_date":    order.OrderDate,
				"delivery_date": order.DeliveryDate,
				"status":        order.Status,
				"subtotal":      order.Subtotal,
				"discount":      order.Discount,
				"total":         order.Total,
				"source":        order.Source,
				"notes":         order.Notes,
				"updated_at":    time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := replaceItems(tx, order.ID, order.Items); err != nil {
			return err
		}
		if err := recomputeCustomer(tx, order.UserID, order.CustomerID); err != nil {
			return err
		}
		if prev.CustomerID != nil && (order.CustomerID == nil || *prev.CustomerID != *order.CustomerID) {
			return recomputeCustomer(tx, order.UserID, prev.CustomerID)
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, userID, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date DESC, id DESC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, userID uint, f models.OrderFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StartDate != nil {
		q = q.Where("order_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("order_date <= ?", *f.EndDate)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		q = q.Where("customer_name ILIKE ? OR order_number ILIKE ?", pattern, pattern)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	page := f.Page
	if page < 0 {
		page = 0
	}

	var orders []models.Order
	err := q.Order("order_date DESC, id DESC").
		Offset(page * limit).
		Limit(limit).
		Find(&orders).Error
	return orders, count, err
}

// Delete removes the order with its items and payments.
func (r *orderRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "customer_id").
			Where("id = ? AND user_id = ?", id, userID).
			First(&order).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		if err := tx.Model(&models.Expense{}).Where("order_id = ?", id).
			Updates(map[string]any{"order_id": nil, "type": models.ExpenseGeneral}).Error; err != nil {
			return fmt.Errorf("detach expenses: %w", err)
		}
		if err := tx.Delete(&models.Order{}, id).Error; err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return recomputeCustomer(tx, userID, order.CustomerID)
	})
}

func (r *orderRepository) UpdateStatus(ctx context.Context, userID, id uint, status models.OrderStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "customer_id").
			Where("id = ? AND user_id = ?", id, userID).
			First(&order).Error; err != nil {
			return notFound(err)
		}
		err := tx.Model(&models.Order{}).Where("id = ?", id).
			Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
		if err != nil {
			return err
		}
		// cancellation changes the customer's order count and spend
		return recomputeCustomer(tx, userID, order.CustomerID)
	})
}

func (r *orderRepository) UpdateDeliveryDate(ctx context.Context, userID, id uint, date time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"delivery_date": date, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) GetByDeliveryRange(ctx context.Context, userID uint, start, end time.Time, statuses []models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND delivery_date BETWEEN ? AND ?", userID, start, end)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("delivery_date ASC, id ASC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByCreatedRange(ctx context.Context, userID uint, start, end time.Time, withItems bool) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx)
	if withItems {
		q = q.Preload("Items")
	}
	err := q.Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, start, end).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByCustomer(ctx context.Context, userID, customerID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("user_id = ? AND customer_id = ?", userID, customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
