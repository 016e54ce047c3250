package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caracas = time.FixedZone("VET", -4*60*60)

var testSession = services.Session{UserID: 9, TokenID: "tok", ExpiresAt: time.Now().Add(time.Hour)}

type stubUsers struct {
	services.UserService
}

func (stubUsers) Authenticate(ctx context.Context, token string) (services.Session, error) {
	if token != "good" {
		return services.Session{}, services.ErrUnauthorized
	}
	return testSession, nil
}

type stubOrders struct {
	services.OrderService
	created  services.OrderInput
	err      error
	moveErr  error
	calendar *services.MonthGrid
	calYear  int
	calMonth time.Month
}

func (s *stubOrders) CreateOrder(ctx context.Context, sess services.Session, in services.OrderInput) (*services.OrderDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = in
	return &services.OrderDetails{Order: &models.Order{ID: 1, UserID: sess.UserID, OrderNumber: "ORD-20260415-001"}}, nil
}

func (s *stubOrders) GetOrder(ctx context.Context, sess services.Session, id uint) (*services.OrderDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.OrderDetails{Order: &models.Order{ID: id}}, nil
}

func (s *stubOrders) MoveDelivery(ctx context.Context, sess services.Session, id uint, date time.Time) error {
	return s.moveErr
}

func (s *stubOrders) Calendar(ctx context.Context, sess services.Session, year int, month time.Month) (*services.MonthGrid, error) {
	s.calYear, s.calMonth = year, month
	return s.calendar, nil
}

type stubCustomers struct {
	services.CustomerService
	query services.CustomerQuery
}

func (s *stubCustomers) ExportCSV(ctx context.Context, sess services.Session, q services.CustomerQuery, w io.Writer) error {
	s.query = q
	_, err := io.WriteString(w, "\ufeffNombre\n\"Ana\"")
	return err
}

type stubStats struct {
	services.StatsService
}

func (stubStats) Financial(ctx context.Context, sess services.Session, p services.Period) (*services.FinancialStats, error) {
	return nil, errors.New("connection reset")
}

func newTestRouter(orders *stubOrders, customers *stubCustomers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAPIHandler(Services{
		Users:     stubUsers{},
		Orders:    orders,
		Customers: customers,
		Stats:     stubStats{},
	}, caracas)
	r := gin.New()
	h.Register(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer good")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRequireAuth(t *testing.T) {
	r := newTestRouter(&stubOrders{}, &stubCustomers{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/orders/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateOrderParsesRequest(t *testing.T) {
	orders := &stubOrders{}
	r := newTestRouter(orders, &stubCustomers{})

	w := do(r, http.MethodPost, "/api/orders", `{
		"customer_name": "Ana",
		"delivery_date": "2026-05-02",
		"discount": "5",
		"items": [{"description": "Franela", "quantity": 2, "unit_price": 25}],
		"initial_payment": {"amount": "0"}
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	in := orders.created
	assert.Equal(t, "Ana", in.CustomerName)
	require.NotNil(t, in.DeliveryDate)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, caracas), *in.DeliveryDate)
	assert.Nil(t, in.OrderDate)
	assert.Equal(t, "5", in.Discount.String())
	require.Len(t, in.Items, 1)
	assert.Equal(t, "25", in.Items[0].UnitPrice.String())
	assert.Nil(t, in.InitialPayment, "a zero initial payment is ignored")
}

func TestCreateOrderErrors(t *testing.T) {
	r := newTestRouter(&stubOrders{}, &stubCustomers{})

	w := do(r, http.MethodPost, "/api/orders", `{"delivery_date": "02/05/2026"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, map[string]interface{}{"DeliveryDate": "datetime"}, body["fields"])

	w = do(r, http.MethodPost, "/api/orders", `{"items": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = newTestRouter(&stubOrders{err: services.ErrItemsRequired}, &stubCustomers{})
	w = do(r, http.MethodPost, "/api/orders", `{"customer_name": "Ana"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "at least one item required", decode(t, w)["error"])
}

func TestGetOrderErrors(t *testing.T) {
	r := newTestRouter(&stubOrders{err: services.ErrNotFound}, &stubCustomers{})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/orders/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/orders/5", "").Code)
}

func TestMoveDeliveryFailureReturnsCalendar(t *testing.T) {
	orders := &stubOrders{
		moveErr:  services.ErrNotFound,
		calendar: &services.MonthGrid{Year: 2026, Month: time.April},
	}
	r := newTestRouter(orders, &stubCustomers{})

	w := do(r, http.MethodPatch, "/api/orders/3/delivery", `{"delivery_date": "2026-05-04", "year": 2026, "month": 4}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not found", body["error"])
	assert.NotNil(t, body["calendar"])
	assert.Equal(t, 2026, orders.calYear)
	assert.Equal(t, time.April, orders.calMonth)

	orders.moveErr = nil
	w = do(r, http.MethodPatch, "/api/orders/3/delivery", `{"delivery_date": "2026-05-04"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestExportCustomersCSV(t *testing.T) {
	customers := &stubCustomers{}
	r := newTestRouter(&stubOrders{}, customers)

	w := do(r, http.MethodGet, "/api/customers/export.csv?filter=vip&sort=nombre", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "clientes.csv")
	assert.Equal(t, "\ufeffNombre\n\"Ana\"", w.Body.String())
	assert.Equal(t, services.FilterVIP, customers.query.Filter)
	assert.Equal(t, services.SortByName, customers.query.Sort)

	w = do(r, http.MethodGet, "/api/customers/export.csv?filter=raros", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStatsErrors(t *testing.T) {
	r := newTestRouter(&stubOrders{}, &stubCustomers{})

	w := do(r, http.MethodGet, "/api/stats/financial?period=anual", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/stats/financial?period=mensual", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAPIHandler(Services{Users: stubUsers{}, Health: func(context.Context) error { return errors.New("redis down") }}, nil).Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
