package models

import "time"

type BookingEventType string

const (
	EventBookingCreated              BookingEventType = "booking.created"
	EventBookingAccepted             BookingEventType = "booking.accepted"
	EventBookingRejected             BookingEventType = "booking.rejected"
	EventBookingAwaitingConfirmation BookingEventType = "booking.awaiting_confirmation"
	EventBookingCompleted            BookingEventType = "booking.completed"
	EventBookingDisputed             BookingEventType = "booking.disputed"
	EventBookingResolved             BookingEventType = "booking.resolved"
	EventBookingRescheduled          BookingEventType = "booking.rescheduled"
	EventBookingCancelled            BookingEventType = "booking.cancelled"
	EventBookingDeleted              BookingEventType = "booking.deleted"
)

var AllBookingEventTypes = []BookingEventType{
	EventBookingCreated,
	EventBookingAccepted,
	EventBookingRejected,
	EventBookingAwaitingConfirmation,
	EventBookingCompleted,
	EventBookingDisputed,
	EventBookingResolved,
	EventBookingRescheduled,
	EventBookingCancelled,
	EventBookingDeleted,
}

// BookingEvent is published after every lifecycle transition. It is also the routing key.
type BookingEvent struct {
	ID                string           `json:"id"`
	Type              BookingEventType `json:"type"`
	BookingID         string           `json:"booking_id"`
	ClientID          string           `json:"client_id"`
	ProviderID        string           `json:"provider_id"`
	Status            BookingStatus    `json:"status"`
	ServiceFee        float64          `json:"service_fee"`
	PlatformFee       float64          `json:"platform_fee"`
	TotalPrice        float64          `json:"total_price"`
	Currency          string           `json:"currency"`
	RefundPercentage  float64          `json:"refund_percentage,omitempty"`
	ResolvedInFavorOf Party            `json:"resolved_in_favor_of,omitempty"`
	Actor             string           `json:"actor"`
	OccurredAt        time.Time        `json:"occurred_at"`
}
