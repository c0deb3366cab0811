package cron

import (
	"context"
	"fmt"
	"time"

	"reservo/config"
	"reservo/services/booking"
	"reservo/services/hold"
	"reservo/services/slots"
	"reservo/services/tasks"
	"reservo/services/wallet"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Jobs are the background operations the worker runs.
type Jobs struct {
	Bookings booking.BookingService
	Holds    hold.HoldService
	Slots    slots.SlotService
	Ledger   wallet.LedgerService
	Logger   *zap.Logger
	Now      func() time.Time
}

func (j Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}

func (j Jobs) queueOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewClient returns the asynq client used to queue deadline tasks.
func NewClient() *asynq.Client {
	return asynq.NewClient(Jobs{}.queueOpt())
}

func (j Jobs) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAutoConfirm, j.handleAutoConfirm)
	mux.HandleFunc(tasks.TypeSweepHolds, j.handleSweepHolds)
	mux.HandleFunc(tasks.TypeSweepAutoConfirm, j.handleSweepAutoConfirm)
	mux.HandleFunc(tasks.TypeRollHorizon, j.handleRollHorizon)
	mux.HandleFunc(tasks.TypeReconcileLedger, j.handleReconcileLedger)
	return mux
}

// InitWorker runs the async worker and the periodic scheduler in background.
func InitWorker(ctx context.Context, j Jobs) {
	redisOpts := j.queueOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: j.Logger.Sugar(),
		},
	)

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	every := fmt.Sprintf("@every %s", sweepInterval())
	for _, t := range []string{tasks.TypeSweepHolds, tasks.TypeSweepAutoConfirm} {
		if _, err := scheduler.Register(every, asynq.NewTask(t, nil), asynq.Unique(sweepInterval())); err != nil {
			j.Logger.Error("Could not register periodic task", zap.String("type", t), zap.Error(err))
		}
	}
	if _, err := scheduler.Register("@daily", asynq.NewTask(tasks.TypeRollHorizon, nil)); err != nil {
		j.Logger.Error("Could not register periodic task", zap.String("type", tasks.TypeRollHorizon), zap.Error(err))
	}
	reconcileEvery := fmt.Sprintf("@every %s", reconcileInterval())
	if _, err := scheduler.Register(reconcileEvery, asynq.NewTask(tasks.TypeReconcileLedger, nil), asynq.Unique(reconcileInterval())); err != nil {
		j.Logger.Error("Could not register periodic task", zap.String("type", tasks.TypeReconcileLedger), zap.Error(err))
	}

	go monitorRedisConnection(ctx, j.Logger)

	go func() {
		j.Logger.Info("Starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Start(j.Mux()); err != nil {
				j.Logger.Error("Worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					j.Logger.Fatal("Max worker start attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
				continue
			}
			break
		}
		if err := scheduler.Start(); err != nil {
			j.Logger.Error("Periodic scheduler failed to start", zap.Error(err))
		}
		<-ctx.Done()
		scheduler.Shutdown()
		srv.Shutdown()
	}()
}

// StartLocalSweeper runs the periodic jobs on a ticker when there is no queue, as in memory mode.
func StartLocalSweeper(ctx context.Context, j Jobs) {
	go func() {
		ticker := time.NewTicker(sweepInterval())
		defer ticker.Stop()
		lastRoll, lastReconcile := time.Now(), time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = j.handleSweepHolds(ctx, nil)
				_ = j.handleSweepAutoConfirm(ctx, nil)
				if time.Since(lastRoll) >= 24*time.Hour {
					_ = j.handleRollHorizon(ctx, nil)
					lastRoll = time.Now()
				}
				if time.Since(lastReconcile) >= reconcileInterval() {
					_ = j.handleReconcileLedger(ctx, nil)
					lastReconcile = time.Now()
				}
			}
		}
	}()
}

func (j Jobs) handleAutoConfirm(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseAutoConfirm(t)
	if err != nil {
		j.Logger.Error("Dropping auto-confirm task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if _, err := j.Bookings.AutoConfirm(ctx, p.BookingID); err != nil {
		return err
	}
	return nil
}

func (j Jobs) handleSweepHolds(ctx context.Context, _ *asynq.Task) error {
	n, err := j.Holds.SweepExpired(ctx)
	if err != nil {
		j.Logger.Error("Hold sweep failed", zap.Error(err))
		return err
	}
	if n > 0 {
		j.Logger.Debug("Expired holds released", zap.Int("providers", n))
	}
	return nil
}

func (j Jobs) handleSweepAutoConfirm(ctx context.Context, _ *asynq.Task) error {
	n, err := j.Bookings.SweepAutoConfirm(ctx)
	if err != nil {
		j.Logger.Error("Auto-confirm sweep failed", zap.Error(err))
		return err
	}
	if n > 0 {
		j.Logger.Info("Overdue bookings auto-confirmed", zap.Int("count", n))
	}
	return nil
}

func (j Jobs) handleRollHorizon(ctx context.Context, _ *asynq.Task) error {
	if err := j.Slots.RollHorizon(ctx); err != nil {
		j.Logger.Error("Horizon roll failed", zap.Error(err))
		return err
	}
	return nil
}

// handleReconcileLedger feeds recently settled bookings through the ledger again. Ledger lines are
// keyed per booking, so bookings already accounted for append nothing.
func (j Jobs) handleReconcileLedger(ctx context.Context, _ *asynq.Task) error {
	if j.Ledger == nil {
		return nil
	}
	evts, err := j.Bookings.SettledEvents(ctx, j.now().Add(-reconcileWindow()))
	if err != nil {
		j.Logger.Error("Ledger reconcile failed to list bookings", zap.Error(err))
		return err
	}
	failed := 0
	for _, evt := range evts {
		if err := j.Ledger.Handle(ctx, evt); err != nil {
			failed++
			j.Logger.Warn("Ledger replay failed", zap.String("bookingId", evt.BookingID), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("ledger reconcile: %d of %d events failed", failed, len(evts))
	}
	return nil
}

func reconcileInterval() time.Duration {
	if config.AppConfig.LedgerReconcileInterval > 0 {
		return config.AppConfig.LedgerReconcileInterval
	}
	return 10 * time.Minute
}

func reconcileWindow() time.Duration {
	if config.AppConfig.LedgerReconcileWindow > 0 {
		return config.AppConfig.LedgerReconcileWindow
	}
	return 7 * 24 * time.Hour
}

func sweepInterval() time.Duration {
	if config.AppConfig.SweepInterval > 0 {
		return config.AppConfig.SweepInterval
	}
	return time.Minute
}

// monitorRedisConnection pings the queue database periodically to surface failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Queue redis connection lost", zap.Error(err))
			}
		}
	}
}
