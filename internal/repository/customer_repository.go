package repository

import (
	"context"
	"fmt"
	"time"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, userID, id uint) (*models.Customer, error)
	List(ctx context.Context, userID uint, activeOnly bool) ([]models.Customer, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// Update writes the editable profile fields. Aggregates are left alone.
func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND user_id = ?", customer.ID, customer.UserID).
		Updates(map[string]any{
			"first_name":               customer.FirstName,
			"last_name":                customer.LastName,
			"phone":                    customer.Phone,
			"email":                    customer.Email,
			"tags":                     customer.Tags,
			"notes":                    customer.Notes,
			"preferred_size":           customer.PreferredSize,
			"preferred_payment_method": customer.PreferredPaymentMethod,
			"is_active":                customer.IsActive,
			"updated_at":               time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, userID, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&customer).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, userID uint, activeOnly bool) ([]models.Customer, error) {
	var customers []models.Customer
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("total_spent DESC, id ASC").Find(&customers).Error
	return customers, err
}

type customerAggregate struct {
	TotalOrders    int
	TotalSpent     decimal.Decimal
	FirstOrderDate *time.Time
	LastOrderDate  *time.Time
}

// recomputeCustomer rewrites the customer's aggregates from their
// non-cancelled orders. It must run inside the transaction of the order write.
func recomputeCustomer(tx *gorm.DB, userID uint, customerID *uint) error {
	if customerID == nil {
		return nil
	}
	var agg customerAggregate
	err := tx.Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total), 0) AS total_spent, "+
			"MIN(order_date) AS first_order_date, MAX(order_date) AS last_order_date").
		Where("user_id = ? AND customer_id = ? AND status <> ?", userID, *customerID, models.StatusCancelled).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate customer %d: %w", *customerID, err)
	}
	err = tx.Model(&models.Customer{}).
		Where("id = ? AND user_id = ?", *customerID, userID).
		Updates(map[string]any{
			"total_orders":     agg.TotalOrders,
			"total_spent":      agg.TotalSpent,
			"first_order_date": agg.FirstOrderDate,
			"last_order_date":  agg.LastOrderDate,
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update customer %d aggregates: %w", *customerID, err)
	}
	return nil
}
