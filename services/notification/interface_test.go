package notification

import (
	"context"
	"errors"
	"sort"
	"testing"

	"reservo/models"

	"go.uber.org/zap/zaptest"
)

type inbox struct {
	to  []string
	err error
}

func (i *inbox) Send(_ context.Context, recipientID, _, _ string, _ map[string]string) error {
	i.to = append(i.to, recipientID)
	return i.err
}

func TestRecipients(t *testing.T) {
	tests := []struct {
		evt   models.BookingEventType
		actor string
		want  []string
	}{
		{models.EventBookingCreated, "client-1", []string{"prov-1"}},
		{models.EventBookingAccepted, "prov-1", []string{"client-1"}},
		{models.EventBookingCancelled, "client-1", []string{"prov-1"}},
		{models.EventBookingCancelled, "prov-1", []string{"client-1"}},
		{models.EventBookingResolved, "admin-1", []string{"client-1", "prov-1"}},
		{models.EventBookingCompleted, "system", []string{"prov-1"}},
		{models.EventBookingDeleted, "client-1", nil},
	}
	for _, tc := range tests {
		box := &inbox{}
		svc, err := NewDefaultNotificationService(box, zaptest.NewLogger(t))
		if err != nil {
			t.Fatal(err)
		}
		evt := models.BookingEvent{Type: tc.evt, BookingID: "b1", ClientID: "client-1", ProviderID: "prov-1", Actor: tc.actor}
		if err := svc.Handle(context.Background(), evt); err != nil {
			t.Fatal(err)
		}
		sort.Strings(box.to)
		if len(box.to) != len(tc.want) {
			t.Errorf("%s by %s: sent to %v, want %v", tc.evt, tc.actor, box.to, tc.want)
			continue
		}
		for i := range tc.want {
			if box.to[i] != tc.want[i] {
				t.Errorf("%s by %s: sent to %v, want %v", tc.evt, tc.actor, box.to, tc.want)
			}
		}
	}
}

func TestSendFailureIsNotFatal(t *testing.T) {
	svc, _ := NewDefaultNotificationService(&inbox{err: errors.New("push down")}, zaptest.NewLogger(t))
	evt := models.BookingEvent{Type: models.EventBookingAccepted, ClientID: "client-1", ProviderID: "prov-1", Actor: "prov-1"}
	if err := svc.Handle(context.Background(), evt); err != nil {
		t.Errorf("Handle returned %v", err)
	}
	if _, err := NewDefaultNotificationService(nil, nil); err == nil {
		t.Error("nil sender accepted")
	}
}
