package assignments

import "context"

// HistoryEntry pairs a stored record with its derived display action.
type HistoryEntry struct {
	Assignment
	Action string `json:"action"`
}

// History returns the user's assignment records newest-first with the
// action label derived per record. Deactivated records stay visible here;
// only hard-deleted ones are gone.
func (s *Service) History(ctx context.Context, userID int64, filters HistoryFilters) ([]HistoryEntry, error) {
	list, err := s.repo.History(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(list))
	for _, a := range list {
		entries = append(entries, HistoryEntry{Assignment: a, Action: HistoryAction(a)})
	}
	return entries, nil
}
