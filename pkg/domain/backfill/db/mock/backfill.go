package mock

import (
	"context"
	"errors"
	"time"

	"github.com/eggrates/eggrate/pkg/domain"
	kbackfill "github.com/eggrates/eggrate/pkg/domain/backfill/db"
)

type CallLog[T any] []T

func (c CallLog[T]) Times() int {
	return len(c)
}

type BackfillInterface struct {
	Impl struct {
		Run func(ctx context.Context, day time.Time) (domain.BackfillReport, error)
	}
	Calls struct {
		Run CallLog[time.Time]
	}
}

func New() *BackfillInterface {
	return &BackfillInterface{}
}

var _ kbackfill.Interface = &BackfillInterface{}

func (bi *BackfillInterface) Run(ctx context.Context, day time.Time) (domain.BackfillReport, error) {
	bi.Calls.Run = append(bi.Calls.Run, day)
	if bi.Impl.Run != nil {
		return bi.Impl.Run(ctx, day)
	}
	panic(errors.New("it should not be called"))
}
