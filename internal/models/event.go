package models

import "time"

// Entities that appear in change events and cache keys.
const (
	EntityOrders     = "orders"
	EntityPayments   = "payments"
	EntityExpenses   = "expenses"
	EntityCustomers  = "customers"
	EntityCategories = "categories"
	EntityCalendar   = "calendar"
	EntityStats      = "stats"
)

type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent is published after every committed mutation.
type ChangeEvent struct {
	Entity string    `json:"entity"`
	Op     ChangeOp  `json:"op"`
	ID     uint      `json:"id"`
	UserID uint      `json:"user_id"`
	At     time.Time `json:"at"`
}
