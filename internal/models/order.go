package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"not null;index"`
	OrderNumber  string          `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerID   *uint           `json:"customer_id" gorm:"index"`
	CustomerName string          `json:"customer_name"`
	Contact      string          `json:"customer_contact"`
	OrderDate    time.Time       `json:"order_date" gorm:"type:date;not null;index"`
	DeliveryDate *time.Time      `json:"delivery_date" gorm:"type:date;index"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(20);default:'agendado';index"`
	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	Discount     decimal.Decimal `json:"discount" gorm:"type:numeric(12,2);not null;default:0"`
	Total        decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	Source       string          `json:"source"`
	Notes        string          `json:"notes" gorm:"type:text"`
	Items        []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments     []Payment       `json:"payments" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OrderStatus is a step of the order pipeline:
// agendado -> en_produccion -> listo -> entregado, with cancelado reachable
// from every non-terminal step.
type OrderStatus string

const (
	StatusScheduled    OrderStatus = "agendado"
	StatusInProduction OrderStatus = "en_produccion"
	StatusReady        OrderStatus = "listo"
	StatusDelivered    OrderStatus = "entregado"
	StatusCancelled    OrderStatus = "cancelado"
)

// StatusPipeline lists the forward steps in order. Cancelled is not part of it.
var StatusPipeline = []OrderStatus{StatusScheduled, StatusInProduction, StatusReady, StatusDelivered}

// AllStatuses is the display order used by listings and statistics.
var AllStatuses = []OrderStatus{StatusScheduled, StatusInProduction, StatusReady, StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Step returns the position of s in StatusPipeline, or -1.
func (s OrderStatus) Step() int {
	for i, v := range StatusPipeline {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the following pipeline step. ok is false at the end of the
// pipeline and for cancelled orders.
func (s OrderStatus) Next() (OrderStatus, bool) {
	i := s.Step()
	if i < 0 || i == len(StatusPipeline)-1 {
		return s, false
	}
	return StatusPipeline[i+1], true
}

// Prev returns the preceding pipeline step.
func (s OrderStatus) Prev() (OrderStatus, bool) {
	i := s.Step()
	if i <= 0 {
		return s, false
	}
	return StatusPipeline[i-1], true
}

func (s OrderStatus) Label() string {
	switch s {
	case StatusScheduled:
		return "Agendado"
	case StatusInProduction:
		return "En Producción"
	case StatusReady:
		return "Listo"
	case StatusDelivered:
		return "Entregado"
	case StatusCancelled:
		return "Cancelado"
	}
	return string(s)
}

// OrderFilter narrows order listings. Page is zero based.
type OrderFilter struct {
	Status    OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Page      int
	Limit     int
}
