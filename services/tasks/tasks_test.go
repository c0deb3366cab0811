package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestAutoConfirmPayload(t *testing.T) {
	task, opts, err := NewAutoConfirmTask("b-42", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeAutoConfirm || len(opts) != 4 {
		t.Fatalf("task %s with %d options", task.Type(), len(opts))
	}
	p, err := ParseAutoConfirm(task)
	if err != nil || p.BookingID != "b-42" {
		t.Fatalf("ParseAutoConfirm = %+v, %v", p, err)
	}

	for _, raw := range []string{"", "{}", "not json"} {
		if _, err := ParseAutoConfirm(asynq.NewTask(TypeAutoConfirm, []byte(raw))); err == nil {
			t.Errorf("payload %q accepted", raw)
		}
	}
}

func TestScheduleAutoConfirm(t *testing.T) {
	ctx := context.Background()
	q := &fakeQueue{}
	d := DeadlineScheduler{Client: q}
	if err := d.ScheduleAutoConfirm(ctx, "b-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if len(q.tasks) != 1 {
		t.Fatalf("queued %d tasks", len(q.tasks))
	}

	q.err = asynq.ErrTaskIDConflict
	if err := d.ScheduleAutoConfirm(ctx, "b-1", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("duplicate task should be ignored: %v", err)
	}
	q.err = errors.New("redis down")
	if err := d.ScheduleAutoConfirm(ctx, "b-1", time.Now().Add(time.Hour)); err == nil {
		t.Error("enqueue failure swallowed")
	}
}
