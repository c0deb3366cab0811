package booking

import (
	"testing"

	"reservo/apperr"
	"reservo/models"
)

func TestAllowedTransitions(t *testing.T) {
	all := []models.BookingStatus{
		models.StatusPending, models.StatusAccepted, models.StatusAwaitingConfirmation, models.StatusCompleted,
		models.StatusDisputed, models.StatusResolved, models.StatusRejected, models.StatusCancelled,
	}
	legal := map[Op][]models.BookingStatus{
		OpAccept:      {models.StatusPending},
		OpReject:      {models.StatusPending},
		OpComplete:    {models.StatusAccepted},
		OpAddEvidence: {models.StatusAwaitingConfirmation},
		OpConfirm:     {models.StatusAwaitingConfirmation},
		OpDispute:     {models.StatusAwaitingConfirmation},
		OpAutoConfirm: {models.StatusAwaitingConfirmation},
		OpReschedule:  {models.StatusPending, models.StatusAccepted},
		OpCancel:      {models.StatusPending, models.StatusAccepted},
		OpResolve:     {models.StatusDisputed},
		OpDelete:      {models.StatusPending},
	}
	for op, from := range legal {
		want := map[models.BookingStatus]bool{}
		for _, s := range from {
			want[s] = true
		}
		for _, s := range all {
			if got := Allowed(op, s); got != want[s] {
				t.Errorf("Allowed(%s, %s) = %v", op, s, got)
			}
		}
	}
	if Allowed("teleport", models.StatusPending) {
		t.Error("unknown op allowed")
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for op := range transitions {
		for _, s := range []models.BookingStatus{models.StatusCompleted, models.StatusResolved, models.StatusRejected, models.StatusCancelled} {
			if Allowed(op, s) {
				t.Errorf("%s leaves terminal %s", op, s)
			}
		}
	}
}

func TestCheckRoles(t *testing.T) {
	b := &models.Booking{ID: "b1", ClientID: "client-1", ProviderID: "prov-1", Status: models.StatusPending}

	tests := []struct {
		op    Op
		actor models.Actor
		want  models.BookingStatus
		kind  apperr.Kind
	}{
		{OpAccept, provider, models.StatusAccepted, ""},
		{OpAccept, client, "", apperr.KindAuthorization},
		{OpAccept, admin, "", apperr.KindAuthorization},
		{OpAccept, models.Actor{ID: "prov-2", Role: models.RoleProvider}, "", apperr.KindAuthorization},
		{OpCancel, client, models.StatusCancelled, ""},
		{OpCancel, provider, models.StatusCancelled, ""},
		{OpReschedule, client, models.StatusPending, ""},
		{OpDelete, client, models.StatusPending, ""},
		{OpComplete, provider, "", apperr.KindState},
		{OpAutoConfirm, models.SystemActor, "", apperr.KindState},
		{OpResolve, admin, "", apperr.KindState},
	}
	for _, tc := range tests {
		got, err := Check(tc.op, tc.actor, b)
		if tc.kind == "" {
			if err != nil || got != tc.want {
				t.Errorf("Check(%s, %s) = %s, %v", tc.op, tc.actor.ID, got, err)
			}
			continue
		}
		if !apperr.IsKind(err, tc.kind) {
			t.Errorf("Check(%s, %s): want %s, got %v", tc.op, tc.actor.ID, tc.kind, err)
		}
	}
}
