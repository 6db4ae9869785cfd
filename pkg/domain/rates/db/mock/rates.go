package mock

import (
	"context"
	"errors"

	"github.com/eggrates/eggrate/pkg/domain"
	krates "github.com/eggrates/eggrate/pkg/domain/rates/db"
)

type CallLog[T any] []T

func (c CallLog[T]) Times() int {
	return len(c)
}

type RatesInterface struct {
	Impl struct {
		ReadLatest  func(ctx context.Context, place domain.Place) (domain.RateRecord, error)
		ReadHistory func(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error)
		WriteRate   func(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error)
		WriteBatch  func(ctx context.Context, recs []domain.RateRecord) (domain.BatchResult, error)
	}
	Calls struct {
		ReadLatest  CallLog[domain.Place]
		ReadHistory CallLog[struct {
			Place domain.Place
			Limit int
		}]
		WriteRate  CallLog[domain.RateRecord]
		WriteBatch CallLog[[]domain.RateRecord]
	}
}

func New() *RatesInterface {
	return &RatesInterface{}
}

var _ krates.Interface = &RatesInterface{}

func (ri *RatesInterface) ReadLatest(ctx context.Context, place domain.Place) (domain.RateRecord, error) {
	ri.Calls.ReadLatest = append(ri.Calls.ReadLatest, place)
	if ri.Impl.ReadLatest != nil {
		return ri.Impl.ReadLatest(ctx, place)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RatesInterface) ReadHistory(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
	ri.Calls.ReadHistory = append(ri.Calls.ReadHistory, struct {
		Place domain.Place
		Limit int
	}{Place: place, Limit: limit})
	if ri.Impl.ReadHistory != nil {
		return ri.Impl.ReadHistory(ctx, place, limit)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RatesInterface) WriteRate(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error) {
	ri.Calls.WriteRate = append(ri.Calls.WriteRate, rec)
	if ri.Impl.WriteRate != nil {
		return ri.Impl.WriteRate(ctx, rec)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RatesInterface) WriteBatch(ctx context.Context, recs []domain.RateRecord) (domain.BatchResult, error) {
	ri.Calls.WriteBatch = append(ri.Calls.WriteBatch, recs)
	if ri.Impl.WriteBatch != nil {
		return ri.Impl.WriteBatch(ctx, recs)
	}
	panic(errors.New("it should not be called"))
}
