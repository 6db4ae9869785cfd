package db

import "context"

// Interface brings the database up to the layout the rest of the
// system expects.
//
// Ensure is safe to call on every start: existing tables are left
// alone, and the one-time copy of legacy rows into the normalized
// tables happens only when those tables are still empty.
type Interface interface {
	Ensure(ctx context.Context) error
}
