package db

import (
	"context"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
)

// Interface is the state/city registry of the normalized schema.
//
// EnsureState and EnsureCity are get-or-create: rows are created lazily
// the first time a name is written, and concurrent first-writers are
// resolved by the storage-level uniqueness constraints. Names must be
// canonical (domain.CanonicalName) before they reach this layer.
type Interface interface {
	EnsureState(ctx context.Context, tx kpool.Tx, name string) (int64, error)

	EnsureCity(ctx context.Context, tx kpool.Tx, name string, stateID int64) (int64, error)

	States(ctx context.Context) ([]domain.StateRow, error)

	Cities(ctx context.Context) ([]domain.CityRow, error)

	// RemoveCity deletes a city and, via cascade, its rate facts.
	// Matching legacy rows are deleted best-effort; a failure there is
	// reported in the receipt, not as an error.
	RemoveCity(ctx context.Context, place domain.Place) (domain.RemovalReceipt, error)

	// RemoveState deletes a state, its cities and their facts, then
	// best-effort deletes legacy rows of that state.
	RemoveState(ctx context.Context, name string) (domain.RemovalReceipt, error)
}
