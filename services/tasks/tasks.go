package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeAutoConfirm      = "booking:auto_confirm"
	TypeSweepHolds       = "holds:sweep"
	TypeSweepAutoConfirm = "booking:auto_confirm_sweep"
	TypeRollHorizon      = "slots:roll_horizon"
	TypeReconcileLedger  = "wallet:reconcile"
)

type AutoConfirmPayload struct {
	BookingID string `json:"booking_id"`
}

func NewAutoConfirmTask(bookingID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(AutoConfirmPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAutoConfirm, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		// One pending task per booking; a repeated Complete does not queue a second one.
		asynq.TaskID(TypeAutoConfirm + ":" + bookingID),
		asynq.MaxRetry(5),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

func ParseAutoConfirm(t *asynq.Task) (AutoConfirmPayload, error) {
	var p AutoConfirmPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeAutoConfirm, err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid %s payload: missing booking_id", TypeAutoConfirm)
	}
	return p, nil
}

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DeadlineScheduler queues auto-confirm tasks for confirmation deadlines.
type DeadlineScheduler struct {
	Client Enqueuer
}

func (d DeadlineScheduler) ScheduleAutoConfirm(ctx context.Context, bookingID string, at time.Time) error {
	task, opts, err := NewAutoConfirmTask(bookingID, at)
	if err != nil {
		return err
	}
	if _, err := d.Client.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue auto-confirm for %s: %w", bookingID, err)
	}
	return nil
}
