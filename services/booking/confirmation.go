package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reservo/apperr"
	"reservo/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minDisputeReason = 10

// Complete moves an accepted booking to awaiting_confirmation, stores the evidence and starts the
// client's confirmation window. At least one evidence file is required.
func (s *DefaultBookingService) Complete(ctx context.Context, actor models.Actor, id, notes string, files []models.EvidenceUpload) (*models.Booking, error) {
	if len(files) == 0 {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "at least one evidence file is required")
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	to, err := Check(OpComplete, actor, b)
	if err != nil {
		return nil, err
	}

	now := s.now()
	evidence, err := s.storeEvidence(ctx, b.ID, actor.ID, files, now)
	if err != nil {
		return nil, err
	}
	b.Status = to
	b.UpdatedAt = now
	b.Completion = &models.Completion{
		RequestedAt:          now,
		Notes:                notes,
		Evidence:             evidence,
		ConfirmationDeadline: now.Add(s.window()),
	}
	if err := s.Bookings.Update(ctx, b); err != nil {
		s.discardEvidence(ctx, evidence)
		return nil, err
	}

	if s.Deadlines != nil {
		if err := s.Deadlines.ScheduleAutoConfirm(ctx, b.ID, b.Completion.ConfirmationDeadline); err != nil {
			// The periodic sweep still picks it up.
			s.logger().Warn("Could not schedule auto-confirm", zap.String("bookingId", b.ID), zap.Error(err))
		}
	}
	s.logger().Info("Booking awaiting confirmation",
		zap.String("bookingId", b.ID),
		zap.Int("evidence", len(evidence)),
		zap.Time("deadline", b.Completion.ConfirmationDeadline))
	s.publish(ctx, b, models.EventBookingAwaitingConfirmation, actor)
	return b, nil
}

// AddEvidence appends more proof while the client has not answered yet.
func (s *DefaultBookingService) AddEvidence(ctx context.Context, actor models.Actor, id string, files []models.EvidenceUpload) (*models.Booking, error) {
	if len(files) == 0 {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "at least one evidence file is required")
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := Check(OpAddEvidence, actor, b); err != nil {
		return nil, err
	}
	now := s.now()
	evidence, err := s.storeEvidence(ctx, b.ID, actor.ID, files, now)
	if err != nil {
		return nil, err
	}
	b.Completion.Evidence = append(b.Completion.Evidence, evidence...)
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		s.discardEvidence(ctx, evidence)
		return nil, err
	}
	return b, nil
}

// Confirm is the client's answer: confirmed completes the booking, otherwise it is disputed.
func (s *DefaultBookingService) Confirm(ctx context.Context, actor models.Actor, id string, req models.ConfirmRequest) (*models.Booking, error) {
	if req.Confirmed == nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "confirmed is required")
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if *req.Confirmed {
		to, err := Check(OpConfirm, actor, b)
		if err != nil {
			return nil, err
		}
		b.Status = to
		b.Completion.ConfirmedAt = &now
		b.UpdatedAt = now
		if err := s.Bookings.Update(ctx, b); err != nil {
			return nil, err
		}
		s.publish(ctx, b, models.EventBookingCompleted, actor)
		return b, nil
	}

	to, err := Check(OpDispute, actor, b)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.DisputeReason)
	if len([]rune(reason)) < minDisputeReason {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "dispute_reason must be at least %d characters", minDisputeReason)
	}
	b.Status = to
	b.Dispute = &models.Dispute{Reason: reason, RaisedBy: actor.ID, RaisedAt: now}
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger().Info("Booking disputed", zap.String("bookingId", b.ID), zap.String("clientId", actor.ID))
	s.publish(ctx, b, models.EventBookingDisputed, actor)
	return b, nil
}

// ResolveDispute records the admin decision and the money split derived from it.
func (s *DefaultBookingService) ResolveDispute(ctx context.Context, actor models.Actor, id string, req models.ResolveDisputeRequest) (*models.Booking, error) {
	if strings.TrimSpace(req.Resolution) == "" {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "resolution is required")
	}
	var pct float64
	switch req.ResolvedInFavorOf {
	case models.PartyClient:
		pct = 100
	case models.PartyProvider:
		pct = 0
	default:
		return nil, apperr.Validation(apperr.CodeInvalidInput, "resolved_in_favor_of must be client or provider")
	}
	if req.RefundPercentage != nil {
		pct = *req.RefundPercentage
	}
	if pct < 0 || pct > 100 {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "refund_percentage must be between 0 and 100")
	}

	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	to, err := Check(OpResolve, actor, b)
	if err != nil {
		return nil, err
	}

	now := s.now()
	refund, release := Settlement(b, pct)
	b.Status = to
	b.UpdatedAt = now
	b.Resolution = &models.Resolution{
		Resolution:            strings.TrimSpace(req.Resolution),
		InFavorOf:             req.ResolvedInFavorOf,
		RefundPercentage:      pct,
		ClientRefundAmount:    refund,
		ProviderReleaseAmount: release,
		ResolvedBy:            actor.ID,
		ResolvedAt:            now,
	}
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger().Info("Dispute resolved",
		zap.String("bookingId", b.ID),
		zap.String("inFavorOf", string(req.ResolvedInFavorOf)),
		zap.Float64("refundPercentage", pct))
	s.publish(ctx, b, models.EventBookingResolved, actor)
	return b, nil
}

func (s *DefaultBookingService) storeEvidence(ctx context.Context, bookingID, uploader string, files []models.EvidenceUpload, now time.Time) ([]models.Evidence, error) {
	out := make([]models.Evidence, 0, len(files))
	if len(files) > 0 && s.Storage == nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "evidence uploads are not configured")
	}
	for _, f := range files {
		stored, err := s.Storage.UploadEvidence(ctx, bookingID, f)
		if err != nil {
			s.discardEvidence(ctx, out)
			return nil, fmt.Errorf("store evidence %q: %w", f.Filename, err)
		}
		out = append(out, models.Evidence{
			ID:         uuid.New().String(),
			BookingID:  bookingID,
			UploadedBy: uploader,
			Type:       models.EvidenceTypeFor(f.ContentType),
			FileRef:    stored.Ref,
			PublicID:   stored.PublicID,
			Checksum:   stored.Checksum,
			Caption:    f.Caption,
			UploadedAt: now,
		})
	}
	return out, nil
}

// discardEvidence removes uploads whose booking write failed.
func (s *DefaultBookingService) discardEvidence(ctx context.Context, evidence []models.Evidence) {
	for _, e := range evidence {
		if err := s.Storage.DeleteFile(ctx, e.PublicID); err != nil {
			s.logger().Warn("Orphaned evidence file", zap.String("publicId", e.PublicID), zap.Error(err))
		}
	}
}
