package services

import (
	"sort"
	"strings"
	"time"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodWeekly    Period = "semanal"
	PeriodMonthly   Period = "mensual"
	PeriodQuarterly Period = "trimestral"
)

// ParsePeriod accepts the Spanish and English period names. Empty means weekly.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "semanal", "weekly":
		return PeriodWeekly, nil
	case "mensual", "monthly":
		return PeriodMonthly, nil
	case "trimestral", "quarterly":
		return PeriodQuarterly, nil
	}
	return "", ErrInvalidPeriod
}

// PeriodWindow returns [start of the first day, end of today] for the period,
// in now's location.
func PeriodWindow(p Period, now time.Time) (time.Time, time.Time) {
	var start time.Time
	switch p {
	case PeriodMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodQuarterly:
		start = now.AddDate(0, -3, 0)
	default:
		start = now.AddDate(0, 0, -7)
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	return start, end
}

type Bucket string

const (
	BucketLocal      Bucket = "local"
	BucketForeign    Bucket = "foreign"
	BucketStablecoin Bucket = "stablecoin"
	BucketOther      Bucket = "other"
)

var Buckets = []Bucket{BucketLocal, BucketForeign, BucketStablecoin}

func CurrencyBucket(currency string) Bucket {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case models.CurrencyBS, "VES", "BSF":
		return BucketLocal
	case models.CurrencyUSD, models.CurrencyEUR:
		return BucketForeign
	case models.CurrencyUSDT:
		return BucketStablecoin
	}
	return BucketOther
}

type BucketTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type FinancialStats struct {
	Start        time.Time               `json:"start"`
	End          time.Time               `json:"end"`
	Buckets      map[Bucket]BucketTotals `json:"buckets"`
	OrderRevenue decimal.Decimal         `json:"order_revenue"`
}

// AggregateFinancials sums tendered payment amounts and expenses per currency
// bucket. OrderRevenue is the base-currency total of non-cancelled orders.
func AggregateFinancials(payments []models.Payment, expenses []models.Expense, orders []models.Order) FinancialStats {
	acc := map[Bucket]BucketTotals{}
	for _, b := range Buckets {
		acc[b] = BucketTotals{Income: decimal.Zero, Expense: decimal.Zero, Balance: decimal.Zero}
	}
	touch := func(b Bucket) BucketTotals {
		if t, ok := acc[b]; ok {
			return t
		}
		return BucketTotals{Income: decimal.Zero, Expense: decimal.Zero}
	}

	for _, p := range payments {
		b := CurrencyBucket(p.Currency)
		t := touch(b)
		t.Income = t.Income.Add(p.TenderedAmount)
		acc[b] = t
	}
	for _, e := range expenses {
		b := CurrencyBucket(e.Currency)
		t := touch(b)
		t.Expense = t.Expense.Add(e.Amount)
		acc[b] = t
	}
	for b, t := range acc {
		t.Balance = t.Income.Sub(t.Expense)
		acc[b] = t
	}

	revenue := decimal.Zero
	for _, o := range orders {
		if o.Status != models.StatusCancelled {
			revenue = revenue.Add(o.Total)
		}
	}
	return FinancialStats{Buckets: acc, OrderRevenue: revenue}
}

type OrderStats struct {
	Start        time.Time                  `json:"start"`
	End          time.Time                  `json:"end"`
	ByStatus     map[models.OrderStatus]int `json:"by_status"`
	Total        int                        `json:"total"`
	Delivered    int                        `json:"delivered"`
	Pending      int                        `json:"pending"`
	DeliveryRate decimal.Decimal            `json:"delivery_rate"`
}

func AggregateOrderStatuses(orders []models.Order) OrderStats {
	s := OrderStats{ByStatus: map[models.OrderStatus]int{}, DeliveryRate: decimal.Zero}
	for _, st := range models.AllStatuses {
		s.ByStatus[st] = 0
	}
	for _, o := range orders {
		if _, ok := s.ByStatus[o.Status]; ok {
			s.ByStatus[o.Status]++
		}
	}
	s.Total = len(orders)
	s.Delivered = s.ByStatus[models.StatusDelivered]
	s.Pending = s.Total - s.Delivered - s.ByStatus[models.StatusCancelled]
	if s.Total > 0 {
		s.DeliveryRate = decimal.NewFromInt(int64(s.Delivered)).
			Div(decimal.NewFromInt(int64(s.Total))).
			Mul(hundred).
			Round(1)
	}
	return s
}

type ProductCount struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Percentage int    `json:"percentage"`
}

const TopProductsLimit = 10

// TopProducts sums item quantities by product name across non-cancelled
// orders and returns the top limit entries. Percentages are relative to the
// summed quantity of the returned entries, not the grand total.
func TopProducts(orders []models.Order, limit int) []ProductCount {
	counts := map[string]int{}
	for _, o := range orders {
		if o.Status == models.StatusCancelled {
			continue
		}
		for _, it := range o.Items {
			name := strings.TrimSpace(it.Description)
			if name == "" {
				continue
			}
			q := it.Quantity
			if q < 1 {
				q = 1
			}
			counts[name] += q
		}
	}

	out := make([]ProductCount, 0, len(counts))
	for name, q := range counts {
		out = append(out, ProductCount{Name: name, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	sum := 0
	for _, p := range out {
		sum += p.Quantity
	}
	for i := range out {
		if sum > 0 {
			out[i].Percentage = int(decimal.NewFromInt(int64(out[i].Quantity)).
				Div(decimal.NewFromInt(int64(sum))).
				Mul(hundred).
				Round(0).
				IntPart())
		}
	}
	return out
}
