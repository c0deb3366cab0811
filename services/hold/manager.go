// Package hold implements temporary, auto-expiring claims on slots. A hold is stored on the slots
// it covers, so taking one is a conditional update on each slot and there is nothing to garbage
// collect: a lapsed hold simply reads as absent.
package hold

import (
	"context"
	"time"

	"reservo/apperr"
	slotRepo "reservo/database/repository/slot"
	"reservo/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HoldService interface {
	Hold(ctx context.Context, holderID string, slotIDs []string, ttl time.Duration) (*models.Hold, error)
	Rehold(ctx context.Context, holderID, previousHoldID string, slotIDs []string, ttl time.Duration) (*models.Hold, error)
	Release(ctx context.Context, holderID, holdID string, slotIDs []string) (int64, error)
	Get(ctx context.Context, holdID string) (*models.Hold, error)
	ActiveForHolder(ctx context.Context, holderID string) ([]models.Hold, error)
	// FindHeldBlock resolves the caller's held slots spanning exactly [start, end).
	FindHeldBlock(ctx context.Context, holderID string, start, end time.Time) (*models.Hold, error)
	SweepExpired(ctx context.Context) (int, error)
}

type CalendarInvalidator interface {
	Invalidate(ctx context.Context, providerID string)
}

type Manager struct {
	Slots      slotRepo.SlotRepository
	Calendar   CalendarInvalidator
	Logger     *zap.Logger
	DefaultTTL time.Duration
	MaxTTL     time.Duration
	Now        func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Manager) ttl(requested time.Duration) time.Duration {
	ttl := requested
	if ttl <= 0 {
		ttl = m.DefaultTTL
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if m.MaxTTL > 0 && ttl > m.MaxTTL {
		ttl = m.MaxTTL
	}
	return ttl
}

// Hold claims every slot in slotIDs for holderID, or none of them.
func (m *Manager) Hold(ctx context.Context, holderID string, slotIDs []string, ttl time.Duration) (*models.Hold, error) {
	if err := checkRequest(slotIDs); err != nil {
		return nil, err
	}
	found, err := m.Slots.GetByIDs(ctx, slotIDs)
	if err != nil {
		return nil, err
	}
	ordered, err := ValidateSelection(slotIDs, found)
	if err != nil {
		return nil, err
	}

	now := m.now()
	for _, s := range ordered {
		if !s.Claimable(now) {
			return nil, apperr.SlotConflict(s.ID)
		}
	}

	claim := models.SlotHold{
		ID:        uuid.New().String(),
		HolderID:  holderID,
		ExpiresAt: now.Add(m.ttl(ttl)),
	}
	ids := models.SlotIDs(ordered)
	if err := m.Slots.Claim(ctx, ids, claim, now); err != nil {
		if apperr.Is(err, apperr.CodeSlotConflict) {
			m.logger().Info("Hold lost race", zap.String("holder", holderID), zap.Strings("slotIds", ids))
		}
		return nil, err
	}
	m.invalidate(ctx, ordered[0].ProviderID)

	return &models.Hold{
		ID:         claim.ID,
		HolderID:   holderID,
		ProviderID: ordered[0].ProviderID,
		SlotIDs:    ids,
		Start:      ordered[0].Start,
		End:        ordered[len(ordered)-1].End,
		ExpiresAt:  claim.ExpiresAt,
	}, nil
}

// Rehold changes a selection: the previous hold goes first so no claim leaks when the
// new one fails. Slots shared by both selections are claimed again.
func (m *Manager) Rehold(ctx context.Context, holderID, previousHoldID string, slotIDs []string, ttl time.Duration) (*models.Hold, error) {
	if err := checkRequest(slotIDs); err != nil {
		return nil, err
	}
	if previousHoldID != "" {
		if _, err := m.Release(ctx, holderID, previousHoldID, nil); err != nil {
			return nil, err
		}
	}
	return m.Hold(ctx, holderID, slotIDs, ttl)
}

// Release is idempotent: it only frees slots still held by holderID and reports how many flipped.
func (m *Manager) Release(ctx context.Context, holderID, holdID string, slotIDs []string) (int64, error) {
	if holdID == "" && len(slotIDs) == 0 {
		return 0, apperr.Validation(apperr.CodeInvalidInput, "hold_id or slot_ids required")
	}
	var providerID string
	if holdID != "" {
		if slots, err := m.Slots.GetByHoldID(ctx, holdID); err == nil && len(slots) > 0 {
			providerID = slots[0].ProviderID
		}
	} else if slots, err := m.Slots.GetByIDs(ctx, slotIDs); err == nil && len(slots) > 0 {
		providerID = slots[0].ProviderID
	}

	n, err := m.Slots.ReleaseHold(ctx, holderID, holdID, slotIDs)
	if err != nil {
		return 0, err
	}
	if n > 0 && providerID != "" {
		m.invalidate(ctx, providerID)
	}
	return n, nil
}

// Get returns the hold if it is still in force; a lapsed hold is reported as not found.
func (m *Manager) Get(ctx context.Context, holdID string) (*models.Hold, error) {
	slots, err := m.Slots.GetByHoldID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	h := models.HoldFromSlots(slots)
	if h == nil || !h.Active(m.now()) {
		return nil, apperr.NotFound("hold %s not found or expired", holdID)
	}
	return h, nil
}

func (m *Manager) ActiveForHolder(ctx context.Context, holderID string) ([]models.Hold, error) {
	slots, err := m.Slots.ListHeldBy(ctx, holderID, m.now())
	if err != nil {
		return nil, err
	}
	return groupHolds(slots), nil
}

func (m *Manager) FindHeldBlock(ctx context.Context, holderID string, start, end time.Time) (*models.Hold, error) {
	if !end.After(start) {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "end_date must be after start_date")
	}
	holds, err := m.ActiveForHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}
	for _, h := range holds {
		if h.Start.Equal(start) && h.End.Equal(end) {
			h := h
			return &h, nil
		}
	}
	return nil, apperr.HoldExpired().With("start", start).With("end", end)
}

// SweepExpired frees lapsed holds so stored state catches up with time.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	providers, err := m.Slots.ReleaseExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	for _, p := range providers {
		m.invalidate(ctx, p)
	}
	return len(providers), nil
}

func groupHolds(slots []models.Slot) []models.Hold {
	byID := map[string][]models.Slot{}
	var order []string
	for _, s := range slots {
		if s.Hold == nil {
			continue
		}
		if _, ok := byID[s.Hold.ID]; !ok {
			order = append(order, s.Hold.ID)
		}
		byID[s.Hold.ID] = append(byID[s.Hold.ID], s)
	}
	holds := make([]models.Hold, 0, len(order))
	for _, id := range order {
		holds = append(holds, *models.HoldFromSlots(byID[id]))
	}
	return holds
}

func (m *Manager) invalidate(ctx context.Context, providerID string) {
	if m.Calendar != nil {
		m.Calendar.Invalidate(ctx, providerID)
	}
}

func (m *Manager) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}
