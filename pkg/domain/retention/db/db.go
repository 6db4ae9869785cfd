package db

import (
	"context"
	"time"

	"github.com/eggrates/eggrate/pkg/domain"
)

// Interface runs one archive-then-purge pass.
//
// Rows dated strictly before the cutoff are copied into the archive and
// then deleted from the live tables, in that order, inside one
// transaction. Re-running with the same cutoff is a no-op: rows already
// archived are skipped and nothing further is deleted. Legacy-schema
// failures abort the run; normalized-schema failures are reported in
// the RetentionReport and do not.
type Interface interface {
	Run(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error)
}
