package staging

import "github.com/google/uuid"

// ProjectChanges joins the pending deltas with the last fetched rows.
// Entries whose row is no longer in rows are left out. The result follows the
// store's insertion order and calling it twice with the same inputs yields the
// same slice contents.
func ProjectChanges(rows []StockRow, store *DeltaStore) []Change {
	byID := make(map[uuid.UUID]StockRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	entries := store.Entries()
	changes := make([]Change, 0, len(entries))
	for _, e := range entries {
		row, ok := byID[e.ID]
		if !ok {
			continue
		}
		changes = append(changes, Change{
			Row:         row,
			Delta:       e.Delta,
			NewQuantity: row.Quantity + e.Delta,
		})
	}
	return changes
}
