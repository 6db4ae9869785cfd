package retention

import (
	"context"
	"log"
	"time"

	"github.com/eggrates/eggrate/cmd/loops/recurring"
	"github.com/eggrates/eggrate/pkg/domain"
	kretention "github.com/eggrates/eggrate/pkg/domain/retention/db"
)

// initial value for task
func Seed() domain.RetentionReport {
	return domain.RetentionReport{}
}

// return:
//
// - task: archive and purge rows older than the retention window.
func Task(
	retention kretention.Interface,
	windowDays int,
	now func() time.Time,
	logger *log.Logger,
) recurring.Task[domain.RetentionReport] {
	return func(ctx context.Context, value domain.RetentionReport) (domain.RetentionReport, bool, error) {
		cutoff := domain.Day(now()).AddDate(0, 0, -windowDays)
		report, err := retention.Run(ctx, cutoff)
		if err != nil {
			return value, false, err
		}
		if report.SecondaryErr != nil {
			logger.Printf(
				"retention kept normalized rows before %s: %s",
				report.Cutoff.Format("2006-01-02"), report.SecondaryErr,
			)
		}
		return report, false, nil
	}
}
