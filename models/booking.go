package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type BookingStatus string

const (
	StatusPending              BookingStatus = "pending"
	StatusAccepted             BookingStatus = "accepted"
	StatusAwaitingConfirmation BookingStatus = "awaiting_confirmation"
	StatusCompleted            BookingStatus = "completed"
	StatusDisputed             BookingStatus = "disputed"
	StatusResolved             BookingStatus = "resolved"
	StatusRejected             BookingStatus = "rejected"
	StatusCancelled            BookingStatus = "cancelled"
)

// Terminal reports whether no further transition can leave the status.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusResolved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusAwaitingConfirmation, StatusCompleted,
		StatusDisputed, StatusResolved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type BookingMode string

const (
	ModeRequest BookingMode = "request"
	ModeInstant BookingMode = "instant"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Completion is set when the provider marks the work done.
type Completion struct {
	RequestedAt          time.Time  `bson:"requestedAt" json:"requested_at"`
	Notes                string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Evidence             []Evidence `bson:"evidence" json:"evidence"`
	ConfirmationDeadline time.Time  `bson:"confirmationDeadline" json:"confirmation_deadline"`
	ConfirmedAt          *time.Time `bson:"confirmedAt,omitempty" json:"confirmed_at,omitempty"`
	AutoConfirmed        bool       `bson:"autoConfirmed" json:"auto_confirmed"`
}

// Dispute is set when the client declines to confirm completion.
type Dispute struct {
	Reason   string    `bson:"reason" json:"reason"`
	RaisedBy string    `bson:"raisedBy" json:"raised_by"`
	RaisedAt time.Time `bson:"raisedAt" json:"raised_at"`
}

type Party string

const (
	PartyClient   Party = "client"
	PartyProvider Party = "provider"
)

// Resolution is the admin decision closing a dispute.
type Resolution struct {
	Resolution            string    `bson:"resolution" json:"resolution"`
	InFavorOf             Party     `bson:"inFavorOf" json:"resolved_in_favor_of"`
	RefundPercentage      float64   `bson:"refundPercentage" json:"refund_percentage"`
	ClientRefundAmount    float64   `bson:"clientRefundAmount" json:"client_refund_amount"`
	ProviderReleaseAmount float64   `bson:"providerReleaseAmount" json:"provider_release_amount"`
	ResolvedBy            string    `bson:"resolvedBy" json:"resolved_by"`
	ResolvedAt            time.Time `bson:"resolvedAt" json:"resolved_at"`
}

// RescheduleInfo tracks the most recent move of a booking to new slots.
type RescheduleInfo struct {
	Count         int       `bson:"count" json:"reschedule_count"`
	PreviousStart time.Time `bson:"previousStart" json:"previous_start"`
	PreviousEnd   time.Time `bson:"previousEnd" json:"previous_end"`
	Reason        string    `bson:"reason,omitempty" json:"reason,omitempty"`
	RequestedBy   string    `bson:"requestedBy" json:"requested_by"`
	RescheduledAt time.Time `bson:"rescheduledAt" json:"rescheduled_at"`
}

// Cancellation is shared by the rejected and cancelled end states.
type Cancellation struct {
	By     string    `bson:"by" json:"by"`
	Reason string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time `bson:"at" json:"at"`
}

// Booking is a reservation of contiguous slots for one service.
type Booking struct {
	ID              string        `bson:"id" json:"id"`
	ClientID        string        `bson:"clientId" json:"client_id"`
	ProviderID      string        `bson:"providerId" json:"provider_id"`
	ServiceID       string        `bson:"serviceId" json:"service_id"`
	SlotIDs         []string      `bson:"slotIds" json:"slot_ids"`
	Start           time.Time     `bson:"start" json:"start"`
	End             time.Time     `bson:"end" json:"end"`
	DurationMinutes int           `bson:"durationMinutes" json:"duration_minutes"`
	ServiceFee      float64       `bson:"serviceFee" json:"service_fee"`
	PlatformFee     float64       `bson:"platformFee" json:"platform_fee"`
	TotalPrice      float64       `bson:"totalPrice" json:"total_price"`
	Currency        string        `bson:"currency" json:"currency"`
	Status          BookingStatus `bson:"status" json:"status"`
	BookingMode     BookingMode   `bson:"bookingMode" json:"booking_mode"`
	PaymentStatus   PaymentStatus `bson:"paymentStatus" json:"payment_status"`
	PaymentRef      string        `bson:"paymentRef,omitempty" json:"payment_ref,omitempty"`

	AcceptedAt   *time.Time      `bson:"acceptedAt,omitempty" json:"accepted_at,omitempty"`
	Rejection    *Cancellation   `bson:"rejection,omitempty" json:"rejection,omitempty"`
	Cancellation *Cancellation   `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Completion   *Completion     `bson:"completion,omitempty" json:"completion,omitempty"`
	Dispute      *Dispute        `bson:"dispute,omitempty" json:"dispute,omitempty"`
	Resolution   *Resolution     `bson:"resolution,omitempty" json:"resolution,omitempty"`
	Reschedule   *RescheduleInfo `bson:"reschedule,omitempty" json:"reschedule,omitempty"`

	Version   int       `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// Deletable reports whether the booking is still pending and untouched by either party.
func (b *Booking) Deletable() bool {
	return b.Status == StatusPending && b.Reschedule == nil
}

// RescheduleCount returns how many times the booking moved.
func (b *Booking) RescheduleCount() int {
	if b.Reschedule == nil {
		return 0
	}
	return b.Reschedule.Count
}

// ConfirmationOverdue reports whether the client confirmation window has lapsed at now.
func (b *Booking) ConfirmationOverdue(now time.Time) bool {
	return b.Status == StatusAwaitingConfirmation && b.Completion != nil &&
		!now.Before(b.Completion.ConfirmationDeadline)
}

var errBookingShape = errors.New("booking shape invalid")

// Validate rejects combinations of status and sub-documents that no transition sequence can produce.
func (b *Booking) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", errBookingShape, fmt.Sprintf(format, args...))
	}
	if !b.Status.Valid() {
		return bad("unknown status %q", b.Status)
	}
	if len(b.SlotIDs) == 0 {
		return bad("no slots")
	}
	if !b.End.After(b.Start) {
		return bad("end must be after start")
	}
	if math.Abs(b.ServiceFee+b.PlatformFee-b.TotalPrice) > 0.005 {
		return bad("total %.2f does not equal fees", b.TotalPrice)
	}

	reachedCompletion := map[BookingStatus]bool{
		StatusAwaitingConfirmation: true, StatusCompleted: true, StatusDisputed: true, StatusResolved: true,
	}
	if reachedCompletion[b.Status] != (b.Completion != nil) {
		return bad("completion record does not match status %s", b.Status)
	}
	if reachedCompletion[b.Status] && b.AcceptedAt == nil {
		return bad("status %s without acceptance", b.Status)
	}
	disputed := b.Status == StatusDisputed || b.Status == StatusResolved
	if disputed != (b.Dispute != nil) {
		return bad("dispute record does not match status %s", b.Status)
	}
	if (b.Status == StatusResolved) != (b.Resolution != nil) {
		return bad("resolution record does not match status %s", b.Status)
	}
	if (b.Status == StatusRejected) != (b.Rejection != nil) {
		return bad("rejection record does not match status %s", b.Status)
	}
	if (b.Status == StatusCancelled) != (b.Cancellation != nil) {
		return bad("cancellation record does not match status %s", b.Status)
	}
	if b.Status == StatusPending && b.AcceptedAt != nil {
		return bad("pending booking carries acceptance")
	}
	if b.Status == StatusCompleted && b.Completion.ConfirmedAt == nil {
		return bad("completed booking without confirmation")
	}
	if b.Status == StatusAwaitingConfirmation && b.Completion.ConfirmedAt != nil {
		return bad("awaiting confirmation but already confirmed")
	}
	return nil
}

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	ProviderID  string      `json:"provider_id" binding:"required"`
	ServiceID   string      `json:"service_id" binding:"required"`
	SlotIDs     []string    `json:"slot_ids" binding:"required"`
	BookingMode BookingMode `json:"booking_mode,omitempty"`
}

type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
	Reason string        `json:"reason,omitempty"`
}

type ConfirmRequest struct {
	Confirmed     *bool  `json:"confirmed" binding:"required"`
	DisputeReason string `json:"dispute_reason,omitempty"`
}

type ResolveDisputeRequest struct {
	Resolution        string   `json:"resolution" binding:"required"`
	ResolvedInFavorOf Party    `json:"resolved_in_favor_of" binding:"required"`
	RefundPercentage  *float64 `json:"refund_percentage,omitempty"`
}

// RescheduleRequest moves a booking onto the held block spanning StartDate..EndDate or onto SlotIDs.
type RescheduleRequest struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	SlotIDs   []string  `json:"slot_ids,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	ClientID     string
	ProviderID   string
	Status       BookingStatus
	UpdatedSince time.Time // zero means unbounded
	Limit        int
}
