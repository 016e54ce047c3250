package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerList() []models.Customer {
	return []models.Customer{
		{ID: 1, FirstName: "Ana", LastName: "Zapata", TotalOrders: 3, TotalSpent: dec("80"),
			FirstOrderDate: daysAgo(200), LastOrderDate: daysAgo(10), CreatedAt: refTime.AddDate(0, -7, 0)},
		{ID: 2, FirstName: "Beto", LastName: "Alvarez", TotalOrders: 1, TotalSpent: dec("200"),
			FirstOrderDate: daysAgo(120), LastOrderDate: daysAgo(120), CreatedAt: refTime.AddDate(0, -4, 0)},
		{ID: 3, FirstName: "Carla", LastName: "Mendez", Phone: "0414", TotalOrders: 1, TotalSpent: dec("20"),
			FirstOrderDate: daysAgo(5), LastOrderDate: daysAgo(5), CreatedAt: refTime.AddDate(0, 0, -5)},
		{ID: 4, FirstName: "Dario", TotalSpent: decimal.Zero, CreatedAt: refTime.AddDate(0, 0, -1)},
	}
}

func ids(views []CustomerView) []uint {
	out := make([]uint, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestQueryCustomers(t *testing.T) {
	tests := []struct {
		name string
		q    CustomerQuery
		want []uint
	}{
		{"default sorts by sales", CustomerQuery{}, []uint{2, 1, 3, 4}},
		{"vip", CustomerQuery{Filter: FilterVIP}, []uint{2, 1}},
		{"inactive includes never ordered", CustomerQuery{Filter: FilterInactive}, []uint{2, 4}},
		{"new", CustomerQuery{Filter: FilterNew, Sort: SortByName}, []uint{3}},
		{"by orders", CustomerQuery{Sort: SortByOrders}, []uint{1, 2, 3, 4}},
		{"by recency", CustomerQuery{Sort: SortByRecent}, []uint{3, 1, 2, 4}},
		{"by last name", CustomerQuery{Sort: SortByName}, []uint{4, 2, 3, 1}},
		{"search phone", CustomerQuery{Search: "0414"}, []uint{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryCustomers(customerList(), tt.q, refTime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := QueryCustomers(customerList(), CustomerQuery{Filter: "raros"}, refTime)
	assert.True(t, IsValidation(err))
	_, err = QueryCustomers(customerList(), CustomerQuery{Sort: "edad"}, refTime)
	assert.True(t, IsValidation(err))
}

func TestCustomerViewSegments(t *testing.T) {
	views, err := QueryCustomers(customerList(), CustomerQuery{Sort: SortByOrders}, refTime)
	require.NoError(t, err)
	ana := views[0]
	assert.True(t, ana.IsVIP, "three orders make a VIP even under the spend threshold")
	assert.False(t, ana.IsInactive)
	assert.Equal(t, 10, ana.DaysSinceLastOrder)
	assert.Equal(t, "26.67", ana.AverageOrderValue.StringFixed(2))
}

func TestSummarizeCustomers(t *testing.T) {
	sum := SummarizeCustomers(customerList(), refTime)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.VIP)
	assert.Equal(t, 2, sum.Inactive)
	assert.Equal(t, 1, sum.New)
	// 300 spent by three customers with orders
	assert.Equal(t, "100.00", sum.AverageTicket.StringFixed(2))
	assert.Equal(t, 2, sum.NewThisMonth)

	empty := SummarizeCustomers(nil, refTime)
	assert.True(t, empty.AverageTicket.IsZero())
}

func TestWriteCustomersCSV(t *testing.T) {
	last := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	views := []CustomerView{
		{Customer: models.Customer{FirstName: `Ana "la flaca"`, LastName: "Pérez", Phone: "0414", TotalOrders: 2,
			TotalSpent: dec("45.5"), LastOrderDate: &last}},
		{Customer: models.Customer{FirstName: "Beto", TotalSpent: decimal.Zero}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCustomersCSV(&buf, views))

	want := "\ufeffNombre,Apellido,Teléfono,Email,Pedidos,Total €,Último pedido\n" +
		`"Ana ""la flaca""","Pérez","0414","","2","45.50","2026-03-01"` + "\n" +
		`"Beto","","","","0","0.00",""`
	assert.Equal(t, want, buf.String())
}

func TestCustomerServiceCRUDAndHistory(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	svc := NewCustomerService(&fakeCustomerRepo{db: f.db}, &fakeOrderRepo{db: f.db}, f.cache, f.pub,
		Options{CacheTTL: time.Minute, Now: func() time.Time { return fixedNow }})

	_, err := svc.CreateCustomer(ctx, testSession, CustomerInput{FirstName: " "})
	assert.ErrorIs(t, err, ErrCustomerRequired)

	c, err := svc.CreateCustomer(ctx, testSession, CustomerInput{
		FirstName: " Luis ", LastName: "Rojas", Email: "LUIS@MAIL.COM", Tags: []string{"VIP", "VIP", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Luis", c.FirstName)
	assert.Equal(t, "luis@mail.com", c.Email)
	assert.Equal(t, []string{"VIP"}, []string(c.Tags))

	list, err := svc.ListCustomers(ctx, testSession, CustomerQuery{Filter: FilterVIP})
	require.NoError(t, err)
	assert.Len(t, list, 1, "VIP tag overrides thresholds")

	inactive := false
	_, err = svc.UpdateCustomer(ctx, testSession, c.ID, CustomerInput{FirstName: "Luis", IsActive: &inactive})
	require.NoError(t, err)
	list, err = svc.ListCustomers(ctx, testSession, CustomerQuery{})
	require.NoError(t, err)
	assert.Empty(t, list, "update invalidates the cached list and hides inactive customers")

	in := sampleOrder()
	in.CustomerID = &c.ID
	order, err := f.svc.CreateOrder(ctx, testSession, in)
	require.NoError(t, err)

	history, err := svc.History(ctx, testSession, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)

	_, err = svc.History(ctx, testSession, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := svc.GetCustomer(ctx, testSession, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalOrders)
	assert.True(t, view.IsNew)
	assert.Equal(t, "Today", view.Recency)
}
