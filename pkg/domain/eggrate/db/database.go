package db

import (
	kbackfill "github.com/eggrates/eggrate/pkg/domain/backfill/db"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
	krates "github.com/eggrates/eggrate/pkg/domain/rates/db"
	kretention "github.com/eggrates/eggrate/pkg/domain/retention/db"
	kschema "github.com/eggrates/eggrate/pkg/domain/schema/db"
)

type EggRateDatabase interface {
	Rates() krates.Interface
	Places() kplaces.Interface
	Backfill() kbackfill.Interface
	Retention() kretention.Interface
	Schema() kschema.Interface
	Close() error
}
