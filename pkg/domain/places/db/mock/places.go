package mock

import (
	"context"
	"errors"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
)

type CallLog[T any] []T

func (c CallLog[T]) Times() int {
	return len(c)
}

type PlacesInterface struct {
	Impl struct {
		EnsureState func(ctx context.Context, tx kpool.Tx, name string) (int64, error)
		EnsureCity  func(ctx context.Context, tx kpool.Tx, name string, stateID int64) (int64, error)
		States      func(ctx context.Context) ([]domain.StateRow, error)
		Cities      func(ctx context.Context) ([]domain.CityRow, error)
		RemoveCity  func(ctx context.Context, place domain.Place) (domain.RemovalReceipt, error)
		RemoveState func(ctx context.Context, name string) (domain.RemovalReceipt, error)
	}
	Calls struct {
		EnsureState CallLog[string]
		EnsureCity  CallLog[struct {
			Name    string
			StateID int64
		}]
		States      CallLog[struct{}]
		Cities      CallLog[struct{}]
		RemoveCity  CallLog[domain.Place]
		RemoveState CallLog[string]
	}
}

func New() *PlacesInterface {
	return &PlacesInterface{}
}

var _ kplaces.Interface = &PlacesInterface{}

func (pi *PlacesInterface) EnsureState(ctx context.Context, tx kpool.Tx, name string) (int64, error) {
	pi.Calls.EnsureState = append(pi.Calls.EnsureState, name)
	if pi.Impl.EnsureState != nil {
		return pi.Impl.EnsureState(ctx, tx, name)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PlacesInterface) EnsureCity(ctx context.Context, tx kpool.Tx, name string, stateID int64) (int64, error) {
	pi.Calls.EnsureCity = append(pi.Calls.EnsureCity, struct {
		Name    string
		StateID int64
	}{Name: name, StateID: stateID})
	if pi.Impl.EnsureCity != nil {
		return pi.Impl.EnsureCity(ctx, tx, name, stateID)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PlacesInterface) States(ctx context.Context) ([]domain.StateRow, error) {
	pi.Calls.States = append(pi.Calls.States, struct{}{})
	if pi.Impl.States != nil {
		return pi.Impl.States(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PlacesInterface) Cities(ctx context.Context) ([]domain.CityRow, error) {
	pi.Calls.Cities = append(pi.Calls.Cities, struct{}{})
	if pi.Impl.Cities != nil {
		return pi.Impl.Cities(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PlacesInterface) RemoveCity(ctx context.Context, place domain.Place) (domain.RemovalReceipt, error) {
	pi.Calls.RemoveCity = append(pi.Calls.RemoveCity, place)
	if pi.Impl.RemoveCity != nil {
		return pi.Impl.RemoveCity(ctx, place)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PlacesInterface) RemoveState(ctx context.Context, name string) (domain.RemovalReceipt, error) {
	pi.Calls.RemoveState = append(pi.Calls.RemoveState, name)
	if pi.Impl.RemoveState != nil {
		return pi.Impl.RemoveState(ctx, name)
	}
	panic(errors.New("it should not be called"))
}
