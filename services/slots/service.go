package slots

import (
	"context"
	"fmt"
	"time"

	"reservo/apperr"
	availabilityRepo "reservo/database/repository/availability"
	slotRepo "reservo/database/repository/slot"
	"reservo/models"

	"go.uber.org/zap"
)

// SlotService owns provider availability: rules, overrides and the slots expanded from them.
type SlotService interface {
	SetRules(ctx context.Context, actor models.Actor, providerID string, req models.SetRulesRequest) (*models.Schedule, error)
	GetRules(ctx context.Context, providerID string) (*models.Schedule, error)
	UpsertOverride(ctx context.Context, actor models.Actor, o models.DateOverride) (*models.DateOverride, error)
	DeleteOverride(ctx context.Context, actor models.Actor, providerID, date string) error
	ListOverrides(ctx context.Context, providerID, fromDate, toDate string) ([]models.DateOverride, error)
	ListDaySlots(ctx context.Context, providerID, date string) ([]models.Slot, error)
	Regenerate(ctx context.Context, providerID string) (int, error)
	RollHorizon(ctx context.Context) error
}

// CalendarInvalidator is told whenever a provider's slots change.
type CalendarInvalidator interface {
	Invalidate(ctx context.Context, providerID string)
}

type DefaultSlotService struct {
	Repo        availabilityRepo.AvailabilityRepository
	Slots       slotRepo.SlotRepository
	Calendar    CalendarInvalidator
	Logger      *zap.Logger
	HorizonDays int
	Now         func() time.Time
}

func (s *DefaultSlotService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func canManage(actor models.Actor, providerID string) error {
	if actor.Role == models.RoleAdmin || (actor.Role == models.RoleProvider && actor.ID == providerID) {
		return nil
	}
	return apperr.Forbidden("only the provider can change their availability")
}

func (s *DefaultSlotService) SetRules(ctx context.Context, actor models.Actor, providerID string, req models.SetRulesRequest) (*models.Schedule, error) {
	if err := canManage(actor, providerID); err != nil {
		return nil, err
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, apperr.Validation(apperr.CodeInvalidInput, "unknown timezone %q", req.Timezone)
		}
	}
	if err := ValidateRules(req.Rules); err != nil {
		return nil, err
	}

	sched := models.Schedule{
		ProviderID: providerID,
		Timezone:   req.Timezone,
		Rules:      req.Rules,
		UpdatedAt:  s.now(),
	}
	if err := s.Repo.SaveSchedule(ctx, sched); err != nil {
		return nil, err
	}
	if _, err := s.Regenerate(ctx, providerID); err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *DefaultSlotService) GetRules(ctx context.Context, providerID string) (*models.Schedule, error) {
	return s.Repo.GetSchedule(ctx, providerID)
}

func (s *DefaultSlotService) UpsertOverride(ctx context.Context, actor models.Actor, o models.DateOverride) (*models.DateOverride, error) {
	if err := canManage(actor, o.ProviderID); err != nil {
		return nil, err
	}
	sched, err := s.Repo.GetSchedule(ctx, o.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateOverride(o, sched.Rules); err != nil {
		return nil, err
	}
	if !o.IsAvailable {
		o.StartTime, o.EndTime, o.SlotDuration, o.BufferMinutes = "", "", 0, 0
	}
	o.UpdatedAt = s.now()
	if err := s.Repo.UpsertOverride(ctx, o); err != nil {
		return nil, err
	}
	if _, err := s.Regenerate(ctx, o.ProviderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *DefaultSlotService) DeleteOverride(ctx context.Context, actor models.Actor, providerID, date string) error {
	if err := canManage(actor, providerID); err != nil {
		return err
	}
	if err := s.Repo.DeleteOverride(ctx, providerID, date); err != nil {
		return err
	}
	_, err := s.Regenerate(ctx, providerID)
	return err
}

func (s *DefaultSlotService) ListOverrides(ctx context.Context, providerID, fromDate, toDate string) ([]models.DateOverride, error) {
	if fromDate == "" {
		fromDate = s.now().Format(dateLayout)
	}
	if toDate == "" {
		toDate = s.now().AddDate(0, 0, s.horizon()).Format(dateLayout)
	}
	return s.Repo.ListOverrides(ctx, providerID, fromDate, toDate)
}

// ListDaySlots returns a day's slots as seen at now: lapsed holds read as available and slots that
// started without being booked are left out.
func (s *DefaultSlotService) ListDaySlots(ctx context.Context, providerID, date string) ([]models.Slot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "date %q is not YYYY-MM-DD", date)
	}
	slots, err := s.Slots.ListByProviderDates(ctx, providerID, date, date)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.Slot, 0, len(slots))
	for _, sl := range slots {
		if sl.Listed(now) {
			out = append(out, sl.View(now))
		}
	}
	return out, nil
}

// Regenerate replaces the provider's future free slots with a fresh expansion of the rules.
// Held and booked slots, and anything in the past, are left alone; a new slot that would
// overlap one of them is not created.
func (s *DefaultSlotService) Regenerate(ctx context.Context, providerID string) (int, error) {
	now := s.now()
	sched, err := s.Repo.GetSchedule(ctx, providerID)
	if err != nil {
		return 0, err
	}
	loc := sched.Location()
	fromDate := now.In(loc).Format(dateLayout)
	toDate := now.In(loc).AddDate(0, 0, s.horizon()).Format(dateLayout)

	overrides, err := s.Repo.ListOverrides(ctx, providerID, fromDate, toDate)
	if err != nil {
		return 0, err
	}
	if _, err := s.Slots.DeleteFreeFrom(ctx, providerID, now, now); err != nil {
		return 0, err
	}
	retained, err := s.Slots.ListByProviderDates(ctx, providerID, fromDate, toDate)
	if err != nil {
		return 0, err
	}

	candidates := dropOverlapping(Generate(*sched, overrides, now, s.horizon()+1, now), retained)
	if err := s.Slots.InsertMany(ctx, candidates); err != nil {
		return 0, fmt.Errorf("regenerate %s: %w", providerID, err)
	}
	s.invalidate(ctx, providerID)

	s.logger().Info("Regenerated slots",
		zap.String("providerId", providerID),
		zap.Int("created", len(candidates)),
		zap.Int("retained", len(retained)))
	return len(candidates), nil
}

// RollHorizon regenerates every provider so the window keeps moving forward day by day.
func (s *DefaultSlotService) RollHorizon(ctx context.Context) error {
	ids, err := s.Repo.ListProviderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.Regenerate(ctx, id); err != nil {
			s.logger().Error("Horizon roll failed", zap.String("providerId", id), zap.Error(err))
		}
	}
	return nil
}

func (s *DefaultSlotService) horizon() int {
	if s.HorizonDays > 0 {
		return s.HorizonDays
	}
	return 90
}

func (s *DefaultSlotService) invalidate(ctx context.Context, providerID string) {
	if s.Calendar != nil {
		s.Calendar.Invalidate(ctx, providerID)
	}
}

func (s *DefaultSlotService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
