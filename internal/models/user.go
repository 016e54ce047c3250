package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Customer aggregates (TotalOrders, TotalSpent, First/LastOrderDate) are
// derived from the customer's non-cancelled orders and rewritten in the same
// transaction as every order write.
type Customer struct {
	ID                     uint                        `json:"id" gorm:"primaryKey"`
	UserID                 uint                        `json:"user_id" gorm:"not null;index"`
	FirstName              string                      `json:"first_name" gorm:"not null"`
	LastName               string                      `json:"last_name"`
	Phone                  string                      `json:"phone"`
	Email                  string                      `json:"email"`
	Tags                   datatypes.JSONSlice[string] `json:"tags"`
	Notes                  string                      `json:"notes" gorm:"type:text"`
	PreferredSize          string                      `json:"preferred_size"`
	PreferredPaymentMethod string                      `json:"preferred_payment_method"`
	TotalOrders            int                         `json:"total_orders" gorm:"not null;default:0"`
	TotalSpent             decimal.Decimal             `json:"total_spent" gorm:"type:numeric(12,2);not null;default:0"`
	FirstOrderDate         *time.Time                  `json:"first_order_date" gorm:"type:date"`
	LastOrderDate          *time.Time                  `json:"last_order_date" gorm:"type:date"`
	IsActive               bool                        `json:"is_active" gorm:"default:true"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
}

func (c Customer) FullName() string {
	switch {
	case c.LastName == "":
		return c.FirstName
	case c.FirstName == "":
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

// AverageOrderValue is TotalSpent / TotalOrders, zero without orders.
func (c Customer) AverageOrderValue() decimal.Decimal {
	if c.TotalOrders <= 0 {
		return decimal.Zero
	}
	return c.TotalSpent.Div(decimal.NewFromInt(int64(c.TotalOrders))).Round(2)
}

func (c Customer) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
