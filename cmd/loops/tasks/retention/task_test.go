package retention_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/eggrates/eggrate/cmd/loops/tasks/retention"
	"github.com/eggrates/eggrate/pkg/domain"
	dbmock "github.com/eggrates/eggrate/pkg/domain/retention/db/mock"
)

func TestRetentionTask(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	t.Run("it derives the cutoff from the window and returns the report", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
		expectedCutoff := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC) // 30 days before

		expected := domain.RetentionReport{
			Cutoff:         expectedCutoff,
			LegacyArchived: 5,
			LegacyDeleted:  5,
		}

		mockDbInterface := dbmock.New()
		mockDbInterface.Impl.Run = func(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error) {
			if !cutoff.Equal(expectedCutoff) {
				t.Errorf("cutoff = %s, want %s", cutoff, expectedCutoff)
			}
			return expected, nil
		}

		testee := retention.Task(mockDbInterface, 30, func() time.Time { return now }, logger)
		report, ok, err := testee(context.Background(), retention.Seed())

		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("a full cycle should not report backlog")
		}
		if report.LegacyArchived != expected.LegacyArchived {
			t.Errorf("report = %+v, want %+v", report, expected)
		}
	})

	t.Run("it does not fail the cycle on a normalized-schema error", func(t *testing.T) {
		secondary := errors.New("fake error")

		mockDbInterface := dbmock.New()
		mockDbInterface.Impl.Run = func(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error) {
			return domain.RetentionReport{Cutoff: cutoff, SecondaryErr: secondary}, nil
		}

		testee := retention.Task(mockDbInterface, 30, time.Now, logger)
		report, _, err := testee(context.Background(), retention.Seed())

		if err != nil {
			t.Fatal(err)
		}
		if !errors.Is(report.SecondaryErr, secondary) {
			t.Errorf("SecondaryErr = %v, want %v", report.SecondaryErr, secondary)
		}
	})

	t.Run("it propagates the error and keeps the last report", func(t *testing.T) {
		expectedErr := errors.New("fake error")

		mockDbInterface := dbmock.New()
		mockDbInterface.Impl.Run = func(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error) {
			return domain.RetentionReport{}, expectedErr
		}

		seed := domain.RetentionReport{LegacyDeleted: 9}
		testee := retention.Task(mockDbInterface, 30, time.Now, logger)
		report, _, err := testee(context.Background(), seed)

		if !errors.Is(err, expectedErr) {
			t.Errorf("err = %v, want %v", err, expectedErr)
		}
		if report.LegacyDeleted != seed.LegacyDeleted {
			t.Errorf("report = %+v, want the seed %+v", report, seed)
		}
	})
}
