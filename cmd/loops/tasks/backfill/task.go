package backfill

import (
	"context"
	"log"
	"time"

	"github.com/eggrates/eggrate/cmd/loops/recurring"
	"github.com/eggrates/eggrate/pkg/domain"
	kbackfill "github.com/eggrates/eggrate/pkg/domain/backfill/db"
)

// initial value for task
func Seed() domain.BackfillReport {
	return domain.BackfillReport{}
}

// return:
//
// - task: fill today's missing rates from state averages and history.
//
// One cycle covers every known city, so the task never reports
// backlog; with the "forever" policy it simply waits out the cooldown.
func Task(
	backfill kbackfill.Interface,
	now func() time.Time,
	logger *log.Logger,
) recurring.Task[domain.BackfillReport] {
	return func(ctx context.Context, value domain.BackfillReport) (domain.BackfillReport, bool, error) {
		report, err := backfill.Run(ctx, now())
		if err != nil {
			return value, false, err
		}
		for _, u := range report.Unresolved {
			logger.Printf("backfill left %s unresolved: %s", u.Place, u.Reason)
		}
		return report, false, nil
	}
}
