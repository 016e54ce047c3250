package services

import (
	"time"

	"airport_manager/internal/models"
)

type CalendarCell struct {
	Date       string         `json:"date"`
	Day        int            `json:"day"`
	OtherMonth bool           `json:"other_month"`
	Orders     []CalendarPill `json:"orders"`
}

// CalendarPill is the draggable representation of an order in a cell.
type CalendarPill struct {
	ID           uint               `json:"id"`
	OrderNumber  string             `json:"order_number"`
	CustomerName string             `json:"customer_name"`
	Status       models.OrderStatus `json:"status"`
	Completed    bool               `json:"completed"`
}

type MonthGrid struct {
	Year  int            `json:"year"`
	Month time.Month     `json:"month"`
	Start time.Time      `json:"start"`
	End   time.Time      `json:"end"`
	Cells []CalendarCell `json:"cells"`
}

const dateLayout = "2006-01-02"

// BuildMonthGrid returns the cells from the Monday on or before the first of
// the month to the Sunday on or after its last day. The cell count is always
// a multiple of seven.
func BuildMonthGrid(year int, month time.Month, loc *time.Location) MonthGrid {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	offset := (int(first.Weekday()) + 6) % 7
	daysToSunday := (7 - int(last.Weekday())) % 7

	start := first.AddDate(0, 0, -offset)
	end := last.AddDate(0, 0, daysToSunday)

	g := MonthGrid{Year: first.Year(), Month: first.Month(), Start: start, End: end}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		g.Cells = append(g.Cells, CalendarCell{
			Date:       d.Format(dateLayout),
			Day:        d.Day(),
			OtherMonth: d.Month() != first.Month(),
			Orders:     []CalendarPill{},
		})
	}
	return g
}

// Place puts each order into the cell matching its delivery date. Orders
// without a delivery date or outside the grid are skipped.
func (g *MonthGrid) Place(orders []models.Order) {
	index := make(map[string]int, len(g.Cells))
	for i, c := range g.Cells {
		index[c.Date] = i
	}
	for _, o := range orders {
		if o.DeliveryDate == nil {
			continue
		}
		i, ok := index[o.DeliveryDate.Format(dateLayout)]
		if !ok {
			continue
		}
		g.Cells[i].Orders = append(g.Cells[i].Orders, CalendarPill{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: o.CustomerName,
			Status:       o.Status,
			Completed:    o.Status == models.StatusDelivered,
		})
	}
}
