package mock

import (
	"context"
	"errors"

	kschema "github.com/eggrates/eggrate/pkg/domain/schema/db"
)

type SchemaInterface struct {
	Impl struct {
		Ensure func(ctx context.Context) error
	}
	Calls struct {
		Ensure int
	}
}

func New() *SchemaInterface {
	return &SchemaInterface{}
}

var _ kschema.Interface = &SchemaInterface{}

func (si *SchemaInterface) Ensure(ctx context.Context) error {
	si.Calls.Ensure += 1
	if si.Impl.Ensure != nil {
		return si.Impl.Ensure(ctx)
	}
	panic(errors.New("it should not be called"))
}
