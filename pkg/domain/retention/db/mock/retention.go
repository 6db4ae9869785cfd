package mock

import (
	"context"
	"errors"
	"time"

	"github.com/eggrates/eggrate/pkg/domain"
	kretention "github.com/eggrates/eggrate/pkg/domain/retention/db"
)

type CallLog[T any] []T

func (c CallLog[T]) Times() int {
	return len(c)
}

type RetentionInterface struct {
	Impl struct {
		Run func(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error)
	}
	Calls struct {
		Run CallLog[time.Time]
	}
}

func New() *RetentionInterface {
	return &RetentionInterface{}
}

var _ kretention.Interface = &RetentionInterface{}

func (ri *RetentionInterface) Run(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error) {
	ri.Calls.Run = append(ri.Calls.Run, cutoff)
	if ri.Impl.Run != nil {
		return ri.Impl.Run(ctx, cutoff)
	}
	panic(errors.New("it should not be called"))
}
