package services

import (
	"context"
	"fmt"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"golang.org/x/sync/errgroup"
)

type StatsService interface {
	Financial(ctx context.Context, sess Session, period Period) (*FinancialStats, error)
	Orders(ctx context.Context, sess Session, period Period) (*OrderStats, error)
	Products(ctx context.Context, sess Session, period Period) ([]ProductCount, error)
}

type statsService struct {
	orderRepo     repository.OrderRepository
	financialRepo repository.FinancialRepository
	cache         Cache
	opts          Options
}

func NewStatsService(orderRepo repository.OrderRepository, financialRepo repository.FinancialRepository, cache Cache, opts Options) StatsService {
	return &statsService{
		orderRepo:     orderRepo,
		financialRepo: financialRepo,
		cache:         cache,
		opts:          opts.withDefaults(),
	}
}

func (s *statsService) key(sess Session, kind string, period Period) QueryKey {
	today := s.opts.today().Format(dateLayout)
	return QueryKey{Entity: models.EntityStats, UserID: sess.UserID, Params: []string{kind, string(period), today}}
}

func (s *statsService) Financial(ctx context.Context, sess Session, period Period) (*FinancialStats, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key(sess, "financial", period), func() (*FinancialStats, error) {
		start, end := PeriodWindow(period, s.opts.now())

		var (
			payments []models.Payment
			expenses []models.Expense
			orders   []models.Order
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			payments, err = s.financialRepo.ListPayments(gctx, sess.UserID, &start, &end)
			if err != nil {
				return fmt.Errorf("load payments: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			expenses, err = s.financialRepo.ListExpenses(gctx, sess.UserID, &start, &end)
			if err != nil {
				return fmt.Errorf("load expenses: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			orders, err = s.orderRepo.GetByCreatedRange(gctx, sess.UserID, start, end, false)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		st := AggregateFinancials(payments, expenses, orders)
		st.Start, st.End = start, end
		return &st, nil
	})
}

func (s *statsService) Orders(ctx context.Context, sess Session, period Period) (*OrderStats, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key(sess, "orders", period), func() (*OrderStats, error) {
		start, end := PeriodWindow(period, s.opts.now())
		orders, err := s.orderRepo.GetByCreatedRange(ctx, sess.UserID, start, end, false)
		if err != nil {
			return nil, fmt.Errorf("load orders: %w", err)
		}
		st := AggregateOrderStatuses(orders)
		st.Start, st.End = start, end
		return &st, nil
	})
}

func (s *statsService) Products(ctx context.Context, sess Session, period Period) ([]ProductCount, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key(sess, "products", period), func() ([]ProductCount, error) {
		start, end := PeriodWindow(period, s.opts.now())
		orders, err := s.orderRepo.GetByCreatedRange(ctx, sess.UserID, start, end, true)
		if err != nil {
			return nil, fmt.Errorf("load orders: %w", err)
		}
		return TopProducts(orders, TopProductsLimit), nil
	})
}
