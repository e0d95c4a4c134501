package sequence

import "context"

// Generator hands out monotonically increasing numbers per named sequence, starting at 1.
// Numbers are never reused, even if the record that consumed one is later deleted.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
}
