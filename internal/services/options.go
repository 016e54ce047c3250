package services

import (
	"time"

	"airport_manager/internal/models"
)

// Options carries the configuration shared by the application services.
type Options struct {
	Location         *time.Location
	BaseCurrency     string
	CacheTTL         time.Duration
	DraftTTL         time.Duration
	CalendarStatuses []models.OrderStatus
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.BaseCurrency == "" {
		o.BaseCurrency = models.CurrencyEUR
	}
	if len(o.CalendarStatuses) == 0 {
		o.CalendarStatuses = []models.OrderStatus{models.StatusScheduled, models.StatusInProduction}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().In(o.Location)
}

// today is midnight of the current day in the configured location.
func (o Options) today() time.Time {
	n := o.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, o.Location)
}
