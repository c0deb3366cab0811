package booking

import (
	"reservo/apperr"
	"reservo/models"
)

type Op string

const (
	OpAccept      Op = "accept"
	OpReject      Op = "reject"
	OpComplete    Op = "complete"
	OpConfirm     Op = "confirm"
	OpDispute     Op = "dispute"
	OpAutoConfirm Op = "auto_confirm"
	OpReschedule  Op = "reschedule"
	OpCancel      Op = "cancel"
	OpResolve     Op = "resolve_dispute"
	OpDelete      Op = "delete"
	OpAddEvidence Op = "add_evidence"
)

type party int

const (
	byClient party = 1 << iota
	byProvider
	byAdmin
	bySystem
)

type transition struct {
	actors party
	from   []models.BookingStatus
	to     models.BookingStatus // empty keeps the current status
}

// transitions is the whole lifecycle. Anything not listed is an invalid transition.
var transitions = map[Op]transition{
	OpAccept:      {byProvider, []models.BookingStatus{models.StatusPending}, models.StatusAccepted},
	OpReject:      {byProvider, []models.BookingStatus{models.StatusPending}, models.StatusRejected},
	OpComplete:    {byProvider, []models.BookingStatus{models.StatusAccepted}, models.StatusAwaitingConfirmation},
	OpAddEvidence: {byProvider, []models.BookingStatus{models.StatusAwaitingConfirmation}, ""},
	OpConfirm:     {byClient, []models.BookingStatus{models.StatusAwaitingConfirmation}, models.StatusCompleted},
	OpDispute:     {byClient, []models.BookingStatus{models.StatusAwaitingConfirmation}, models.StatusDisputed},
	OpAutoConfirm: {bySystem, []models.BookingStatus{models.StatusAwaitingConfirmation}, models.StatusCompleted},
	OpReschedule:  {byClient | byProvider, []models.BookingStatus{models.StatusPending, models.StatusAccepted}, ""},
	OpCancel:      {byClient | byProvider, []models.BookingStatus{models.StatusPending, models.StatusAccepted}, models.StatusCancelled},
	OpResolve:     {byAdmin, []models.BookingStatus{models.StatusDisputed}, models.StatusResolved},
	OpDelete:      {byClient, []models.BookingStatus{models.StatusPending}, ""},
}

// partyOf says in which capacity actor may act on b.
func partyOf(actor models.Actor, b *models.Booking) party {
	switch actor.Role {
	case models.RoleClient:
		if actor.ID == b.ClientID {
			return byClient
		}
	case models.RoleProvider:
		if actor.ID == b.ProviderID {
			return byProvider
		}
	case models.RoleAdmin:
		return byAdmin
	case models.RoleSystem:
		return bySystem
	}
	return 0
}

// Authorize checks only who may perform op on b.
func Authorize(op Op, actor models.Actor, b *models.Booking) error {
	t, ok := transitions[op]
	if !ok {
		return apperr.InvalidTransition("unknown operation %s", op)
	}
	if partyOf(actor, b)&t.actors == 0 {
		return apperr.Forbidden("%s %s may not %s booking %s", actor.Role, actor.ID, op, b.ID)
	}
	return nil
}

// Check authorizes op and verifies b is in a state op may leave. It returns the target status.
func Check(op Op, actor models.Actor, b *models.Booking) (models.BookingStatus, error) {
	if err := Authorize(op, actor, b); err != nil {
		return "", err
	}
	t := transitions[op]
	for _, from := range t.from {
		if b.Status == from {
			if t.to == "" {
				return b.Status, nil
			}
			return t.to, nil
		}
	}
	return "", apperr.InvalidTransition("cannot %s a booking that is %s", op, b.Status).
		With("status", b.Status)
}

// Allowed reports whether op is legal from status regardless of who asks. Used by tests and the API docs.
func Allowed(op Op, status models.BookingStatus) bool {
	t, ok := transitions[op]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == status {
			return true
		}
	}
	return false
}
