package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is append only: it can be deleted but never updated.
//
// Amount is expressed in the base currency and is what the order balance is
// computed from. Currency and TenderedAmount record what was actually
// received (e.g. bolívares or USDT) and feed the per-currency statistics.
type Payment struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"user_id" gorm:"not null;index"`
	OrderID        uint            `json:"order_id" gorm:"not null;index:idx_payments_order_date,priority:1"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency       string          `json:"currency" gorm:"type:varchar(8);not null"`
	TenderedAmount decimal.Decimal `json:"tendered_amount" gorm:"type:numeric(14,2);not null"`
	Method         string          `json:"method"`
	PaymentDate    time.Time       `json:"payment_date" gorm:"type:date;not null;index:idx_payments_order_date,priority:2"`
	Reference      string          `json:"reference"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
}

type ExpenseType string

const (
	ExpenseGeneral       ExpenseType = "general"
	ExpenseOrderSpecific ExpenseType = "orden_especifico"
)

// Expense with a nil OrderID is a general business expense.
type Expense struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"not null;index"`
	OrderID   *uint           `json:"order_id" gorm:"index"`
	Type      ExpenseType     `json:"expense_type" gorm:"type:varchar(20);not null"`
	Concept   string          `json:"concept" gorm:"not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Currency  string          `json:"currency" gorm:"type:varchar(8);not null"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
}

// Supported currencies.
const (
	CurrencyBS   = "BS"
	CurrencyUSD  = "USD"
	CurrencyUSDT = "USDT"
	CurrencyEUR  = "EUR"
)
