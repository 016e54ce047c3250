package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"github.com/shopspring/decimal"
)

type CustomerInput struct {
	FirstName              string
	LastName               string
	Phone                  string
	Email                  string
	Tags                   []string
	Notes                  string
	PreferredSize          string
	PreferredPaymentMethod string
	IsActive               *bool
}

// CustomerView is a customer with its derived segments.
type CustomerView struct {
	models.Customer
	Segments
	Recency           string          `json:"recency"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type CustomerFilter string

const (
	FilterAll      CustomerFilter = "todos"
	FilterVIP      CustomerFilter = "vip"
	FilterInactive CustomerFilter = "inactivos"
	FilterNew      CustomerFilter = "nuevos"
)

type CustomerSort string

const (
	SortBySales  CustomerSort = "ventas"
	SortByOrders CustomerSort = "pedidos"
	SortByRecent CustomerSort = "reciente"
	SortByName   CustomerSort = "nombre"
)

type CustomerQuery struct {
	Filter CustomerFilter
	Sort   CustomerSort
	Search string
}

type CustomerSummary struct {
	Total         int             `json:"total"`
	VIP           int             `json:"vip"`
	Inactive      int             `json:"inactive"`
	New           int             `json:"new"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	NewThisMonth  int             `json:"new_this_month"`
}

// HistoryLimit is how many recent orders a customer history shows.
const HistoryLimit = 20

type CustomerService interface {
	CreateCustomer(ctx context.Context, sess Session, in CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, sess Session, id uint, in CustomerInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, sess Session, id uint) (*CustomerView, error)
	ListCustomers(ctx context.Context, sess Session, q CustomerQuery) ([]CustomerView, error)
	Summary(ctx context.Context, sess Session) (*CustomerSummary, error)
	// ExportCSV writes the customers matching q as a spreadsheet-friendly CSV.
	ExportCSV(ctx context.Context, sess Session, q CustomerQuery, w io.Writer) error
	History(ctx context.Context, sess Session, id uint) ([]OrderDetails, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	cache        Cache
	feed         *changeFeed
	opts         Options
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	cache Cache,
	pub ChangePublisher,
	opts Options,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		cache:        cache,
		feed:         newChangeFeed(cache, pub),
		opts:         opts.withDefaults(),
	}
}

func applyCustomerInput(c *models.Customer, in CustomerInput) error {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	if c.FirstName == "" && c.LastName == "" {
		return ErrCustomerRequired
	}
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Notes = strings.TrimSpace(in.Notes)
	c.PreferredSize = strings.TrimSpace(in.PreferredSize)
	c.PreferredPaymentMethod = strings.TrimSpace(in.PreferredPaymentMethod)

	tags := make([]string, 0, len(in.Tags))
	seen := map[string]bool{}
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	c.Tags = tags
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, sess Session, in CustomerInput) (*models.Customer, error) {
	c := &models.Customer{UserID: sess.UserID, IsActive: true, TotalSpent: decimal.Zero}
	if err := applyCustomerInput(c, in); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.feed.record(ctx, models.EntityCustomers, models.OpInsert, c.ID, sess.UserID)
	return c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, sess Session, id uint, in CustomerInput) (*models.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	if err := applyCustomerInput(c, in); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	s.feed.record(ctx, models.EntityCustomers, models.OpUpdate, id, sess.UserID)
	return c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, sess Session, id uint) (*CustomerView, error) {
	c, err := s.customerRepo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	v := NewCustomerView(*c, s.opts.now())
	return &v, nil
}

// activeCustomers is the cached base list every customer read starts from.
func (s *customerService) activeCustomers(ctx context.Context, sess Session) ([]models.Customer, error) {
	key := QueryKey{Entity: models.EntityCustomers, UserID: sess.UserID, Params: []string{"active"}}
	return cached(ctx, s.cache, s.opts.CacheTTL, key, func() ([]models.Customer, error) {
		list, err := s.customerRepo.List(ctx, sess.UserID, true)
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		return list, nil
	})
}

func (s *customerService) ListCustomers(ctx context.Context, sess Session, q CustomerQuery) ([]CustomerView, error) {
	list, err := s.activeCustomers(ctx, sess)
	if err != nil {
		return nil, err
	}
	return QueryCustomers(list, q, s.opts.now())
}

func (s *customerService) Summary(ctx context.Context, sess Session) (*CustomerSummary, error) {
	list, err := s.activeCustomers(ctx, sess)
	if err != nil {
		return nil, err
	}
	sum := SummarizeCustomers(list, s.opts.now())
	return &sum, nil
}

func (s *customerService) ExportCSV(ctx context.Context, sess Session, q CustomerQuery, w io.Writer) error {
	views, err := s.ListCustomers(ctx, sess, q)
	if err != nil {
		return err
	}
	return WriteCustomersCSV(w, views)
}

func (s *customerService) History(ctx context.Context, sess Session, id uint) ([]OrderDetails, error) {
	if _, err := s.customerRepo.GetByID(ctx, sess.UserID, id); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.GetByCustomer(ctx, sess.UserID, id, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("customer history: %w", err)
	}
	out := make([]OrderDetails, 0, len(orders))
	for i := range orders {
		out = append(out, OrderDetails{Order: &orders[i], Summary: Balance(orders[i].Total, orders[i].Payments)})
	}
	return out, nil
}

func NewCustomerView(c models.Customer, now time.Time) CustomerView {
	seg := Classify(c, now)
	return CustomerView{
		Customer:          c,
		Segments:          seg,
		Recency:           FormatRecency(seg.DaysSinceLastOrder),
		AverageOrderValue: c.AverageOrderValue(),
	}
}

// QueryCustomers classifies, filters and sorts list.
func QueryCustomers(list []models.Customer, q CustomerQuery, now time.Time) ([]CustomerView, error) {
	filter := q.Filter
	if filter == "" {
		filter = FilterAll
	}
	order := q.Sort
	if order == "" {
		order = SortBySales
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	views := make([]CustomerView, 0, len(list))
	for _, c := range list {
		v := NewCustomerView(c, now)
		switch filter {
		case FilterAll:
		case FilterVIP:
			if !v.IsVIP {
				continue
			}
		case FilterInactive:
			if !v.IsInactive {
				continue
			}
		case FilterNew:
			if !v.IsNew {
				continue
			}
		default:
			return nil, validation("unknown customer filter %q", filter)
		}
		if search != "" && !matchesCustomer(c, search) {
			continue
		}
		views = append(views, v)
	}

	var less func(a, b CustomerView) bool
	switch order {
	case SortBySales:
		less = func(a, b CustomerView) bool { return a.TotalSpent.GreaterThan(b.TotalSpent) }
	case SortByOrders:
		less = func(a, b CustomerView) bool { return a.TotalOrders > b.TotalOrders }
	case SortByRecent:
		less = func(a, b CustomerView) bool { return lastOrderUnix(a) > lastOrderUnix(b) }
	case SortByName:
		less = func(a, b CustomerView) bool { return sortName(a) < sortName(b) }
	default:
		return nil, validation("unknown customer sort %q", order)
	}
	sort.SliceStable(views, func(i, j int) bool { return less(views[i], views[j]) })
	return views, nil
}

func matchesCustomer(c models.Customer, search string) bool {
	for _, f := range []string{c.FullName(), c.Phone, c.Email} {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func lastOrderUnix(v CustomerView) int64 {
	if v.LastOrderDate == nil {
		return 0
	}
	return v.LastOrderDate.Unix()
}

func sortName(v CustomerView) string {
	return strings.ToLower(v.LastName + " " + v.FirstName)
}

// SummarizeCustomers computes the headline customer metrics. The average
// ticket divides total spend by the customers that have ordered at least once.
func SummarizeCustomers(list []models.Customer, now time.Time) CustomerSummary {
	sum := CustomerSummary{Total: len(list), AverageTicket: decimal.Zero}
	spent := decimal.Zero
	buyers := 0
	for _, c := range list {
		seg := Classify(c, now)
		if seg.IsVIP {
			sum.VIP++
		}
		if seg.IsInactive {
			sum.Inactive++
		}
		if seg.IsNew {
			sum.New++
		}
		if c.TotalOrders > 0 {
			buyers++
			spent = spent.Add(c.TotalSpent)
		}
		created := c.CreatedAt.In(now.Location())
		if created.Year() == now.Year() && created.Month() == now.Month() {
			sum.NewThisMonth++
		}
	}
	if buyers > 0 {
		sum.AverageTicket = spent.Div(decimal.NewFromInt(int64(buyers))).Round(2)
	}
	return sum
}

var customerCSVHeader = []string{"Nombre", "Apellido", "Teléfono", "Email", "Pedidos", "Total €", "Último pedido"}

// WriteCustomersCSV writes a UTF-8 BOM, the header row and one row per
// customer with every field quoted.
func WriteCustomersCSV(w io.Writer, views []CustomerView) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("\ufeff")
	bw.WriteString(strings.Join(customerCSVHeader, ","))
	for _, v := range views {
		last := ""
		if v.LastOrderDate != nil {
			last = v.LastOrderDate.Format(dateLayout)
		}
		row := []string{
			v.FirstName,
			v.LastName,
			v.Phone,
			v.Email,
			strconv.Itoa(v.TotalOrders),
			v.TotalSpent.StringFixed(2),
			last,
		}
		bw.WriteByte('\n')
		for i, f := range row {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`)
		}
	}
	return bw.Flush()
}
