package services

import (
	"fmt"
	"math"
	"time"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
)

const (
	VIPMinOrders = 3
	InactiveDays = 90
	NewDays      = 30

	// NoOrderDays stands in for "never ordered".
	NoOrderDays = 9999

	TagVIP      = "VIP"
	TagInactive = "Inactivo"
)

var VIPMinSpent = decimal.NewFromInt(150)

const day = 24 * time.Hour

// Segments are independent flags; a customer may be VIP and inactive at once.
type Segments struct {
	IsVIP              bool `json:"is_vip"`
	IsInactive         bool `json:"is_inactive"`
	IsNew              bool `json:"is_new"`
	DaysSinceLastOrder int  `json:"days_since_last_order"`
}

// Classify derives the segment flags of c at time now. It has no hidden
// state: the same input always yields the same flags.
func Classify(c models.Customer, now time.Time) Segments {
	days := NoOrderDays
	if c.LastOrderDate != nil {
		days = int(math.Floor(float64(now.Sub(*c.LastOrderDate)) / float64(day)))
	}

	s := Segments{DaysSinceLastOrder: days}
	s.IsVIP = c.TotalOrders >= VIPMinOrders ||
		c.TotalSpent.GreaterThanOrEqual(VIPMinSpent) ||
		c.HasTag(TagVIP)
	s.IsInactive = days >= InactiveDays || c.HasTag(TagInactive)
	s.IsNew = c.FirstOrderDate != nil && now.Sub(*c.FirstOrderDate) <= NewDays*day
	return s
}

// FormatRecency renders the days since the last order as a short label.
func FormatRecency(days int) string {
	switch {
	case days >= NoOrderDays:
		return "—"
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	}
	return fmt.Sprintf("%d months ago", days/30)
}
