package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Note is a free-text quick note. Notes live in Redis only.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDraft is the single in-progress new-order form of a user, autosaved
// while editing and cleared when the order is created or discarded.
type OrderDraft struct {
	CustomerID    *uint           `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Contact       string          `json:"customer_contact,omitempty"`
	DeliveryDate  string          `json:"delivery_date,omitempty"`
	Discount      decimal.Decimal `json:"discount"`
	Notes         string          `json:"notes,omitempty"`
	Items         []DraftItem     `json:"items"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	SavedAt       time.Time       `json:"saved_at"`
}

type DraftItem struct {
	CategoryID  *uint           `json:"category_id,omitempty"`
	Description string          `json:"description"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
