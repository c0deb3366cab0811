package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation(CodeInvalidInput, "bad"), http.StatusBadRequest},
		{InvalidRule("bad rule"), http.StatusBadRequest},
		{SlotConflict("s1"), http.StatusConflict},
		{HoldExpired(), http.StatusConflict},
		{HoldNotOwned(), http.StatusConflict},
		{NonContiguousSelection(), http.StatusConflict},
		{VersionConflict("booking"), http.StatusConflict},
		{InvalidTransition("no"), http.StatusConflict},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{&Error{Kind: "mystery"}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.err.Status(); got != tc.want {
			t.Errorf("%s: status %d, want %d", tc.err.Code, got, tc.want)
		}
	}
}

func TestRefreshHints(t *testing.T) {
	if SlotConflict().Refresh != RefreshAvailability {
		t.Error("slot conflict should refresh availability")
	}
	if HoldExpired().Refresh != RefreshSlotSelection || HoldNotOwned().Refresh != RefreshSlotSelection {
		t.Error("hold errors should refresh the slot selection")
	}
	if VersionConflict("booking").Refresh != RefreshBooking {
		t.Error("version conflict should refresh the booking")
	}
}

func TestWrappedErrorsKeepTheirCode(t *testing.T) {
	err := fmt.Errorf("create booking: %w", SlotConflict("s1", "s2"))
	if !Is(err, CodeSlotConflict) || !IsKind(err, KindConflict) {
		t.Fatalf("code lost through wrapping: %v", err)
	}
	e, ok := As(err)
	if !ok || len(e.Details["slot_ids"].([]string)) != 2 {
		t.Errorf("details %+v", e)
	}
	if Is(fmt.Errorf("plain"), CodeSlotConflict) {
		t.Error("plain error matched a code")
	}
}
