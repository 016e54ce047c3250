package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"not null;index"`
	CategoryID  *uint           `json:"category_id"`
	Description string          `json:"description"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Category groups order items for reporting (e.g. "Franelas", "Gorras").
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_categories_user_name,priority:1"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_categories_user_name,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}
