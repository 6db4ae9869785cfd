package db

import (
	"context"

	"github.com/eggrates/eggrate/pkg/domain"
)

// Interface is the read/write facade over both rate representations.
//
// Reads follow a fixed fallback order: the normalized schema answers
// when it has at least one row, the legacy flat table answers otherwise.
// The order never varies between endpoints; during the unfinished
// migration the two schemas can disagree, and every caller must see the
// same answer.
type Interface interface {
	// ReadLatest returns the most recent rate for the place.
	// A domain/errors.ErrMissing-wrapped error means "no data in either
	// schema" and is a valid outcome, not a failure.
	ReadLatest(ctx context.Context, place domain.Place) (domain.RateRecord, error)

	// ReadHistory returns rates for the place, newest first.
	// limit <= 0 means no limit.
	ReadHistory(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error)

	// WriteRate upserts into the legacy table first; only when that
	// commits does it upsert the normalized schema. A normalized-side
	// failure is returned in WriteReceipt.SecondaryErr and never rolls
	// back the legacy write.
	WriteRate(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error)

	// WriteBatch applies WriteRate per row and aggregates outcomes;
	// one row's failure never suppresses the rest.
	WriteBatch(ctx context.Context, recs []domain.RateRecord) (domain.BatchResult, error)
}
