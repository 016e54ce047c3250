package repository

import (
	"context"
	"fmt"
	"time"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentCheck decides whether a write may go ahead, given the order and the
// amount already paid against it, read with the order row locked.
type PaymentCheck func(order *models.Order, paid decimal.Decimal) error

type FinancialRepository interface {
	// CreatePayment locks the order row, sums its payments, runs check and
	// inserts the payment, all in one transaction. A check error leaves the
	// stored payments untouched.
	CreatePayment(ctx context.Context, payment *models.Payment, check PaymentCheck) error
	ListPaymentsByOrder(ctx context.Context, userID, orderID uint) ([]models.Payment, error)
	ListPayments(ctx context.Context, userID uint, start, end *time.Time) ([]models.Payment, error)
	DeletePayment(ctx context.Context, userID, id uint) (*models.Payment, error)

	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpenses(ctx context.Context, userID uint, start, end *time.Time) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, userID, id uint) error
}

type financialRepository struct {
	db *gorm.DB
}

func NewFinancialRepository(db *gorm.DB) FinancialRepository {
	return &financialRepository{db: db}
}

func (r *financialRepository) CreatePayment(ctx context.Context, payment *models.Payment, check PaymentCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", payment.OrderID, payment.UserID).
			First(&order).Error
		if err != nil {
			return notFound(err)
		}

		paid, err := paidForOrder(tx, order.ID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(&order, paid); err != nil {
				return err
			}
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
}

func paidForOrder(tx *gorm.DB, orderID uint) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := tx.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("order_id = ? AND amount > 0", orderID).
		Scan(&paid).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return paid, nil
}

func (r *financialRepository) ListPaymentsByOrder(ctx context.Context, userID, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND order_id = ?", userID, orderID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *financialRepository) ListPayments(ctx context.Context, userID uint, start, end *time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	q = createdBetween(q, start, end)
	err := q.Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// DeletePayment returns the removed row so callers can report which order
// changed.
func (r *financialRepository) DeletePayment(ctx context.Context, userID, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&payment).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&models.Payment{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *financialRepository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expense.OrderID != nil {
			var n int64
			err := tx.Model(&models.Order{}).
				Where("id = ? AND user_id = ?", *expense.OrderID, expense.UserID).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
		}
		return tx.Create(expense).Error
	})
}

func (r *financialRepository) ListExpenses(ctx context.Context, userID uint, start, end *time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	q = createdBetween(q, start, end)
	err := q.Order("created_at DESC").Find(&expenses).Error
	return expenses, err
}

func (r *financialRepository) DeleteExpense(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func createdBetween(q *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		q = q.Where("created_at >= ?", *start)
	}
	if end != nil {
		q = q.Where("created_at <= ?", *end)
	}
	return q
}
