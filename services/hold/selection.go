package hold

import (
	"reservo/apperr"
	"reservo/models"
)

// checkRequest rejects empty or repeated slot ids before any lookup.
func checkRequest(ids []string) error {
	if len(ids) == 0 {
		return apperr.Validation(apperr.CodeInvalidInput, "slot_ids must not be empty")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return apperr.Validation(apperr.CodeInvalidInput, "slot_ids must not contain blanks")
		}
		if _, dup := seen[id]; dup {
			return apperr.Validation(apperr.CodeInvalidInput, "slot %s selected twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ValidateSelection checks that the looked-up slots cover every requested id, belong to one
// provider and run back to back. found is returned ordered by start.
func ValidateSelection(ids []string, found []models.Slot) ([]models.Slot, error) {
	if err := checkRequest(ids); err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		have := make(map[string]struct{}, len(found))
		for _, s := range found {
			have[s.ID] = struct{}{}
		}
		var missing []string
		for _, id := range ids {
			if _, ok := have[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, apperr.NotFound("slots not found").With("slot_ids", missing)
	}

	ordered := append([]models.Slot(nil), found...)
	models.SortSlots(ordered)
	for i := 1; i < len(ordered); i++ {
		if ordered[i].ProviderID != ordered[0].ProviderID {
			return nil, apperr.Validation(apperr.CodeInvalidInput, "selected slots belong to different providers")
		}
		if !ordered[i-1].End.Equal(ordered[i].Start) {
			return nil, apperr.NonContiguousSelection()
		}
	}
	return ordered, nil
}
