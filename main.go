// File: reservo/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservo/config"
	"reservo/cron"
	"reservo/database"
	availabilityRepo "reservo/database/repository/availability"
	bookingRepo "reservo/database/repository/booking"
	"reservo/database/repository/memory"
	slotRepo "reservo/database/repository/slot"
	walletRepo "reservo/database/repository/wallet"
	"reservo/handlers"
	"reservo/models"
	"reservo/routes"
	"reservo/services/booking"
	"reservo/services/calendar"
	"reservo/services/events"
	"reservo/services/hold"
	"reservo/services/notification"
	"reservo/services/payment"
	"reservo/services/provider"
	"reservo/services/slots"
	"reservo/services/storage"
	"reservo/services/tasks"
	"reservo/services/wallet"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

type stores struct {
	slots        slotRepo.SlotRepository
	bookings     bookingRepo.BookingRepository
	availability availabilityRepo.AvailabilityRepository
	wallets      walletRepo.WalletRepository
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	checks := map[string]utils.HealthCheck{}
	var st stores
	var cache calendar.MonthCache
	if config.UseMemoryStore() {
		logger.Warn("STORE_DRIVER=memory: state is lost on restart")
		mem := memory.NewStore()
		st = stores{mem.Slots(), mem.Bookings(), mem.Availability(), mem.Wallets()}
	} else {
		database.InitDB()
		st = stores{
			slots:        slotRepo.NewMongoSlotRepo(),
			bookings:     bookingRepo.NewMongoBookingRepo(),
			availability: availabilityRepo.NewMongoAvailabilityRepo(),
		}
		if config.AppConfig.LedgerDSN != "" {
			database.InitLedgerDB()
			st.wallets = walletRepo.NewWalletRepo()
		} else {
			logger.Warn("LEDGER_DSN not set, wallet ledger kept in memory")
			st.wallets = memory.NewStore().Wallets()
		}
		ensureIndexes(ctx, logger, st)
		checks["database"] = database.Ping

		utils.InitCache()
		cache = calendar.NewRedisMonthCache(utils.GetCacheClient(), config.AppConfig.CalendarCacheTTL, logger)
		checks["redis"] = func(ctx context.Context) error { return utils.GetCacheClient().Ping(ctx).Err() }
	}

	stripe.Key = config.AppConfig.StripeKey
	var payments payment.Processor = &payment.SimulatedProcessor{Logger: logger}
	if config.AppConfig.StripeKey != "" {
		payments = &payment.StripeProcessor{Logger: logger}
	}

	var files storage.StorageService = storage.NewMemoryStorage()
	if config.AppConfig.CloudinaryURL != "" {
		cld, err := storage.NewStorageService(config.AppConfig.CloudinaryURL, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
		}
		files = cld
	}

	// services.
	calendarSvc := &calendar.Aggregator{
		Slots:        st.slots,
		Availability: st.availability,
		Cache:        cache,
		Logger:       logger,
	}
	slotSvc := &slots.DefaultSlotService{
		Repo:        st.availability,
		Slots:       st.slots,
		Calendar:    calendarSvc,
		Logger:      logger,
		HorizonDays: config.AppConfig.SlotHorizonDays,
	}
	holdSvc := &hold.Manager{
		Slots:      st.slots,
		Calendar:   calendarSvc,
		Logger:     logger,
		DefaultTTL: config.AppConfig.HoldTTL,
		MaxTTL:     config.AppConfig.HoldMaxTTL,
	}
	catalogueSvc, err := provider.NewDefaultCatalogueService(st.availability, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	ledger := wallet.NewLedger(st.wallets, logger)
	notifier, err := notification.NewDefaultNotificationService(notification.LogSender{Logger: logger}, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	publisher := startEvents(ctx, logger, ledger, notifier)

	bookingSvc := &booking.DefaultBookingService{
		Bookings:           st.bookings,
		Slots:              st.slots,
		Catalogue:          st.availability,
		Holds:              holdSvc,
		Payments:           payments,
		Storage:            files,
		Events:             publisher,
		Calendar:           calendarSvc,
		Logger:             logger,
		ConfirmationWindow: config.AppConfig.ConfirmationWindow,
	}

	jobs := cron.Jobs{Bookings: bookingSvc, Holds: holdSvc, Slots: slotSvc, Ledger: ledger, Logger: logger}
	if config.UseMemoryStore() {
		cron.StartLocalSweeper(ctx, jobs)
	} else {
		queue := cron.NewClient()
		defer queue.Close()
		bookingSvc.Deadlines = tasks.DeadlineScheduler{Client: queue}
		cron.InitWorker(ctx, jobs)
	}

	handlerBundle := &handlers.HandlerBundle{
		Availability: &handlers.AvailabilityHandler{Slots: slotSvc, Calendar: calendarSvc, Logger: logger},
		Holds:        &handlers.HoldHandler{Holds: holdSvc, Logger: logger},
		Bookings:     &handlers.BookingHandler{BookingSvc: bookingSvc, Logger: logger},
		Catalogue:    &handlers.CatalogueHandler{Catalogue: catalogueSvc, Logger: logger},
		Wallet:       &handlers.WalletHandler{Ledger: ledger, Logger: logger},
		Health:       &handlers.HealthHandler{Checks: checks},
	}
	utils.StartHealthMonitor(ctx, checks)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if closer, ok := publisher.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	utils.CloseCache()
	database.Close(shutdownCtx)

	logger.Sugar().Info("main: server stopped gracefully")
}

// startEvents picks the broker when AMQP_URL is set and an in-process bus otherwise, and
// attaches the ledger and notifier as consumers.
func startEvents(ctx context.Context, logger *zap.Logger, ledger *wallet.Ledger, notifier notification.NotificationService) events.Publisher {
	if config.AppConfig.AMQPURL == "" {
		bus := events.NewLocalBus(logger)
		bus.Subscribe(ledger.Handle, wallet.Consumes...)
		bus.Subscribe(notifier.Handle, models.AllBookingEventTypes...)
		return bus
	}

	consumers := []*events.Consumer{
		{URL: config.AppConfig.AMQPURL, Queue: "reservo.wallet", Types: wallet.Consumes, Handler: ledger.Handle, Logger: logger},
		{URL: config.AppConfig.AMQPURL, Queue: "reservo.notifications", Types: models.AllBookingEventTypes, Handler: notifier.Handle, Logger: logger},
	}
	for _, c := range consumers {
		c := c
		go func() {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Event consumer stopped", zap.String("queue", c.Queue), zap.Error(err))
			}
		}()
	}
	return events.NewAMQPPublisher(config.AppConfig.AMQPURL, logger)
}

func ensureIndexes(ctx context.Context, logger *zap.Logger, st stores) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for name, fn := range map[string]func(context.Context) error{
		"slots":        st.slots.EnsureIndexes,
		"bookings":     st.bookings.EnsureIndexes,
		"availability": st.availability.EnsureIndexes,
	} {
		if err := fn(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to create %s indexes: %v", name, err)
		}
	}
}
