package sync

import (
	"context"
	"time"
)

// CursorProductPull is the well-known cursor name of the product polling sync
const CursorProductPull = "product-pull"

// CursorStore persists polling high-water marks between runs and restarts.
type CursorStore interface {
	// Get returns the stored instant for a cursor; the second result is
	// false when the cursor has never been written
	Get(ctx context.Context, name string) (time.Time, bool, error)

	// Set writes the cursor, overwriting any previous value
	Set(ctx context.Context, name string, ts time.Time) error
}
