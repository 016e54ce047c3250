package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"airport_manager/internal/config"
	"airport_manager/internal/database"
	"airport_manager/internal/handlers"
	"airport_manager/internal/models"
	"airport_manager/internal/redis"
	"airport_manager/internal/repository"
	"airport_manager/internal/services"
	"airport_manager/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serviceOptions(cfg *config.Config) services.Options {
	statuses := make([]models.OrderStatus, 0, len(cfg.CalendarActiveStatuses))
	for _, s := range cfg.CalendarActiveStatuses {
		if st := models.OrderStatus(s); st.Valid() {
			statuses = append(statuses, st)
		} else {
			slog.Warn("ignoring unknown calendar status", "status", s)
		}
	}
	return services.Options{
		Location:         cfg.Location(),
		BaseCurrency:     cfg.BaseCurrency,
		CacheTTL:         cfg.CacheTTL,
		DraftTTL:         cfg.DraftTTL,
		CalendarStatuses: statuses,
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return err
	}
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var sender services.MessageSender
	if cfg.WhatsAppEnabled() {
		sender = whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
	} else {
		slog.Info("whatsapp notifications disabled")
	}

	opts := serviceOptions(cfg)

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	financialRepo := repository.NewFinancialRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	categoryService := services.NewCategoryService(categoryRepo, redisClient, redisClient, opts)
	apiHandler := handlers.NewAPIHandler(handlers.Services{
		Users:      services.NewUserService(userRepo, redisClient, categoryService, cfg.JWTSecret, cfg.SessionTTL),
		Orders:     services.NewOrderService(orderRepo, customerRepo, redisClient, services.NewWhatsAppService(sender), redisClient, redisClient, opts),
		Payments:   services.NewPaymentService(financialRepo, redisClient, redisClient, opts),
		Customers:  services.NewCustomerService(customerRepo, orderRepo, redisClient, redisClient, opts),
		Categories: categoryService,
		Notes:      services.NewNoteService(redisClient),
		Drafts:     services.NewDraftService(redisClient, opts),
		Stats:      services.NewStatsService(orderRepo, financialRepo, redisClient, opts),
		Changes:    redisClient,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		},
	}, opts.Location)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger())
	apiHandler.Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := services.RunInvalidator(gctx, redisClient, redisClient)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Warn("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
