package services

import (
	"testing"
	"time"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var refTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := refTime.AddDate(0, 0, -n)
	return &t
}

func TestClassifyVIP(t *testing.T) {
	byOrders := models.Customer{TotalOrders: 3, TotalSpent: decimal.NewFromInt(80), LastOrderDate: daysAgo(1)}
	assert.True(t, Classify(byOrders, refTime).IsVIP)

	bySpend := models.Customer{TotalOrders: 1, TotalSpent: decimal.NewFromInt(150)}
	assert.True(t, Classify(bySpend, refTime).IsVIP)

	byTag := models.Customer{Tags: []string{TagVIP}}
	assert.True(t, Classify(byTag, refTime).IsVIP)

	regular := models.Customer{TotalOrders: 2, TotalSpent: decimal.RequireFromString("149.99")}
	assert.False(t, Classify(regular, refTime).IsVIP)
}

func TestClassifyRecency(t *testing.T) {
	never := Classify(models.Customer{}, refTime)
	assert.Equal(t, NoOrderDays, never.DaysSinceLastOrder)
	assert.True(t, never.IsInactive)
	assert.False(t, never.IsNew)

	recent := Classify(models.Customer{LastOrderDate: daysAgo(89), FirstOrderDate: daysAgo(30)}, refTime)
	assert.False(t, recent.IsInactive)
	assert.True(t, recent.IsNew)
	assert.Equal(t, 89, recent.DaysSinceLastOrder)

	stale := Classify(models.Customer{LastOrderDate: daysAgo(90), FirstOrderDate: daysAgo(31)}, refTime)
	assert.True(t, stale.IsInactive)
	assert.False(t, stale.IsNew)

	tagged := Classify(models.Customer{LastOrderDate: daysAgo(2), Tags: []string{TagInactive}}, refTime)
	assert.True(t, tagged.IsInactive)
}

func TestClassifyFlagsAreIndependent(t *testing.T) {
	c := models.Customer{TotalOrders: 5, LastOrderDate: daysAgo(200), FirstOrderDate: daysAgo(400)}
	got := Classify(c, refTime)
	assert.True(t, got.IsVIP)
	assert.True(t, got.IsInactive)
	assert.Equal(t, got, Classify(c, refTime))
}

func TestFormatRecency(t *testing.T) {
	tests := map[int]string{
		9999: "—",
		0:    "Today",
		1:    "Yesterday",
		6:    "6 days ago",
		7:    "1 weeks ago",
		29:   "4 weeks ago",
		30:   "1 months ago",
		95:   "3 months ago",
	}
	for days, want := range tests {
		assert.Equal(t, want, FormatRecency(days), days)
	}
}
