// Package paging slices in-memory result sets the way SQL LIMIT/OFFSET would.
package paging

// Page returns items[offset:offset+limit], clamped. limit <= 0 means "no limit".
func Page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
