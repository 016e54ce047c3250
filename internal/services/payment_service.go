package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"github.com/shopspring/decimal"
)

// PaymentInput is a payment as submitted by a client. Amount is in the base
// currency; TenderedAmount is what was received in Currency and defaults to
// Amount.
type PaymentInput struct {
	Amount         decimal.Decimal
	Currency       string
	TenderedAmount decimal.Decimal
	Method         string
	PaymentDate    *time.Time
	Reference      string
	Notes          string
}

type ExpenseInput struct {
	OrderID   *uint
	Concept   string
	Amount    decimal.Decimal
	Currency  string
	Reference string
}

// DateRange bounds listings by creation time. Either end may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type PaymentService interface {
	// RecordPayment re-checks the order balance with the order row locked, so
	// concurrent payments cannot overpay it.
	RecordPayment(ctx context.Context, sess Session, orderID uint, in PaymentInput) (*models.Payment, error)
	ListOrderPayments(ctx context.Context, sess Session, orderID uint) ([]models.Payment, error)
	ListPayments(ctx context.Context, sess Session, r DateRange) ([]models.Payment, error)
	DeletePayment(ctx context.Context, sess Session, id uint) error

	RecordExpense(ctx context.Context, sess Session, in ExpenseInput) (*models.Expense, error)
	ListExpenses(ctx context.Context, sess Session, r DateRange) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, sess Session, id uint) error
}

type paymentService struct {
	financialRepo repository.FinancialRepository
	cache         Cache
	feed          *changeFeed
	opts          Options
}

func NewPaymentService(financialRepo repository.FinancialRepository, cache Cache, pub ChangePublisher, opts Options) PaymentService {
	return &paymentService{
		financialRepo: financialRepo,
		cache:         cache,
		feed:          newChangeFeed(cache, pub),
		opts:          opts.withDefaults(),
	}
}

var knownCurrencies = map[string]bool{
	models.CurrencyBS:   true,
	"VES":               true,
	models.CurrencyUSD:  true,
	models.CurrencyUSDT: true,
	models.CurrencyEUR:  true,
}

func normalizeCurrency(c, fallback string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		c = fallback
	}
	if !knownCurrencies[c] {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// buildPayment validates the shape of in. The balance check happens later,
// against the stored payments.
func buildPayment(userID, orderID uint, in PaymentInput, opts Options) (*models.Payment, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	currency, err := normalizeCurrency(in.Currency, opts.BaseCurrency)
	if err != nil {
		return nil, err
	}
	tendered := in.TenderedAmount
	if tendered.IsNegative() {
		return nil, validation("tendered amount must not be negative")
	}
	if tendered.IsZero() {
		tendered = amount
	}
	date := opts.today()
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		p := *in.PaymentDate
		date = time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, opts.Location)
	}
	return &models.Payment{
		UserID:         userID,
		OrderID:        orderID,
		Amount:         amount,
		Currency:       currency,
		TenderedAmount: tendered.Round(2),
		Method:         strings.TrimSpace(in.Method),
		PaymentDate:    date,
		Reference:      strings.TrimSpace(in.Reference),
		Notes:          strings.TrimSpace(in.Notes),
	}, nil
}

func (s *paymentService) RecordPayment(ctx context.Context, sess Session, orderID uint, in PaymentInput) (*models.Payment, error) {
	payment, err := buildPayment(sess.UserID, orderID, in, s.opts)
	if err != nil {
		return nil, err
	}

	err = s.financialRepo.CreatePayment(ctx, payment, func(order *models.Order, paid decimal.Decimal) error {
		if order.Status == models.StatusCancelled {
			return validation("cannot record payments on a cancelled order")
		}
		balance := nonNegative(order.Total.Sub(paid))
		return ValidatePayment(payment.Amount, balance)
	})
	if err != nil {
		if !IsValidation(err) && !errors.Is(err, repository.ErrNotFound) {
			slog.ErrorContext(ctx, "record payment failed", "order_id", orderID, "err", err)
			return nil, fmt.Errorf("record payment: %w", err)
		}
		return nil, err
	}

	s.feed.record(ctx, models.EntityPayments, models.OpInsert, payment.ID, sess.UserID)
	return payment, nil
}

func (s *paymentService) ListOrderPayments(ctx context.Context, sess Session, orderID uint) ([]models.Payment, error) {
	payments, err := s.financialRepo.ListPaymentsByOrder(ctx, sess.UserID, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *paymentService) ListPayments(ctx context.Context, sess Session, r DateRange) ([]models.Payment, error) {
	key := QueryKey{Entity: models.EntityPayments, UserID: sess.UserID, Params: []string{
		formatDatePtr(r.Start), formatDatePtr(r.End),
	}}
	return cached(ctx, s.cache, s.opts.CacheTTL, key, func() ([]models.Payment, error) {
		payments, err := s.financialRepo.ListPayments(ctx, sess.UserID, r.Start, r.End)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		return payments, nil
	})
}

func (s *paymentService) DeletePayment(ctx context.Context, sess Session, id uint) error {
	p, err := s.financialRepo.DeletePayment(ctx, sess.UserID, id)
	if err != nil {
		return err
	}
	s.feed.record(ctx, models.EntityPayments, models.OpDelete, p.ID, sess.UserID)
	return nil
}

func (s *paymentService) RecordExpense(ctx context.Context, sess Session, in ExpenseInput) (*models.Expense, error) {
	concept := strings.TrimSpace(in.Concept)
	if concept == "" {
		return nil, validation("concept required")
	}
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	currency, err := normalizeCurrency(in.Currency, s.opts.BaseCurrency)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:    sess.UserID,
		OrderID:   in.OrderID,
		Type:      models.ExpenseGeneral,
		Concept:   concept,
		Amount:    amount,
		Currency:  currency,
		Reference: strings.TrimSpace(in.Reference),
	}
	if in.OrderID != nil {
		expense.Type = models.ExpenseOrderSpecific
	}

	if err := s.financialRepo.CreateExpense(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validation("order %d not found", *in.OrderID)
		}
		return nil, fmt.Errorf("record expense: %w", err)
	}
	s.feed.record(ctx, models.EntityExpenses, models.OpInsert, expense.ID, sess.UserID)
	return expense, nil
}

func (s *paymentService) ListExpenses(ctx context.Context, sess Session, r DateRange) ([]models.Expense, error) {
	key := QueryKey{Entity: models.EntityExpenses, UserID: sess.UserID, Params: []string{
		formatDatePtr(r.Start), formatDatePtr(r.End),
	}}
	return cached(ctx, s.cache, s.opts.CacheTTL, key, func() ([]models.Expense, error) {
		expenses, err := s.financialRepo.ListExpenses(ctx, sess.UserID, r.Start, r.End)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		return expenses, nil
	})
}

func (s *paymentService) DeleteExpense(ctx context.Context, sess Session, id uint) error {
	if err := s.financialRepo.DeleteExpense(ctx, sess.UserID, id); err != nil {
		return err
	}
	s.feed.record(ctx, models.EntityExpenses, models.OpDelete, id, sess.UserID)
	return nil
}
