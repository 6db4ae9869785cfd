package db

import (
	"context"
	"time"

	"github.com/eggrates/eggrate/pkg/domain"
)

// Interface runs one daily backfill.
//
// A run is one transaction: a failure partway leaves no partially
// backfilled day behind. Cities that cannot be resolved within the
// lookback bound land in the report's Unresolved list; they do not
// fail the run.
type Interface interface {
	Run(ctx context.Context, day time.Time) (domain.BackfillReport, error)
}
