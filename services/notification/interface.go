package notification

import (
	"context"
	"fmt"

	"reservo/models"

	"go.uber.org/zap"
)

// Sender delivers one message to one party.
type Sender interface {
	Send(ctx context.Context, recipientID, title, body string, data map[string]string) error
}

// NotificationService tells the parties of a booking what just happened to it.
type NotificationService interface {
	Handle(ctx context.Context, evt models.BookingEvent) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	sender Sender
	logger *zap.Logger
}

func NewDefaultNotificationService(sender Sender, logger *zap.Logger) (*DefaultNotificationService, error) {
	if sender == nil {
		return nil, fmt.Errorf("notification service initialization error: sender is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{sender: sender, logger: logger}, nil
}

type message struct {
	toClient   bool
	toProvider bool
	title      string
	body       string
}

var messages = map[models.BookingEventType]message{
	models.EventBookingCreated:              {false, true, "New booking request", "A client requested a booking."},
	models.EventBookingAccepted:             {true, false, "Booking accepted", "Your booking was accepted."},
	models.EventBookingRejected:             {true, false, "Booking declined", "Your booking request was declined."},
	models.EventBookingAwaitingConfirmation: {true, false, "Please confirm", "The provider marked your booking as done. Confirm or raise a dispute."},
	models.EventBookingCompleted:            {false, true, "Booking completed", "Earnings from this booking are now available."},
	models.EventBookingDisputed:             {false, true, "Booking disputed", "The client raised a dispute."},
	models.EventBookingResolved:             {true, true, "Dispute resolved", "The dispute on your booking was resolved."},
	models.EventBookingRescheduled:          {true, true, "Booking rescheduled", "Your booking has a new time."},
	models.EventBookingCancelled:            {true, true, "Booking cancelled", "A booking was cancelled."},
}

// Handle notifies the party that did not trigger evt (both, for admin and system actions).
func (s *DefaultNotificationService) Handle(ctx context.Context, evt models.BookingEvent) error {
	m, ok := messages[evt.Type]
	if !ok {
		return nil
	}
	data := map[string]string{
		"booking_id": evt.BookingID,
		"type":       string(evt.Type),
		"status":     string(evt.Status),
	}
	var recipients []string
	if (m.toClient || evt.Actor == evt.ProviderID) && evt.Actor != evt.ClientID {
		recipients = append(recipients, evt.ClientID)
	}
	if (m.toProvider || evt.Actor == evt.ClientID) && evt.Actor != evt.ProviderID {
		recipients = append(recipients, evt.ProviderID)
	}
	for _, id := range recipients {
		if err := s.sender.Send(ctx, id, m.title, m.body, data); err != nil {
			// Notifications are best effort; a failed push must not redeliver ledger events.
			s.logger.Warn("Notification not delivered",
				zap.String("recipient", id),
				zap.String("bookingId", evt.BookingID),
				zap.Error(err))
		}
	}
	return nil
}

// LogSender writes notifications to the log. It stands in until a push channel is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (l LogSender) Send(_ context.Context, recipientID, title, body string, data map[string]string) error {
	l.Logger.Info("Notification",
		zap.String("recipient", recipientID),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data))
	return nil
}
