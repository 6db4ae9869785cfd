package postgres

import (
	"context"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

// UpsertLegacyRate writes one observation into the flat egg_rate table.
//
// The table has no uniqueness constraint, so this is lookup-then-branch:
// update every row matching the canonical (city, state, date) key, or
// insert when none match. Historical duplicates all receive the update.
// Returns true when a new row was inserted.
func UpsertLegacyRate(ctx context.Context, q kpool.Queryer, rec domain.RateRecord) (bool, error) {
	rec.Place = rec.Place.Canonical()

	var n int
	if err := q.QueryRow(
		ctx,
		`
		select count(*) from "egg_rate"
		where btrim(lower("city")) = $1
		  and btrim(lower("state")) = $2
		  and "rate_date" = $3
		`,
		rec.City, rec.State, domain.Day(rec.Date),
	).Scan(&n); err != nil {
		return false, xe.Wrap(err)
	}

	if n == 0 {
		if _, err := q.Exec(
			ctx,
			`insert into "egg_rate" ("city", "state", "rate_date", "rate") values ($1, $2, $3, $4)`,
			rec.City, rec.State, domain.Day(rec.Date), rec.Rate.Numeric(),
		); err != nil {
			return false, xe.Wrap(err)
		}
		return true, nil
	}

	if _, err := q.Exec(
		ctx,
		`
		update "egg_rate" set "rate" = $4
		where btrim(lower("city")) = $1
		  and btrim(lower("state")) = $2
		  and "rate_date" = $3
		`,
		rec.City, rec.State, domain.Day(rec.Date), rec.Rate.Numeric(),
	); err != nil {
		return false, xe.Wrap(err)
	}
	return false, nil
}

// UpsertRateFact writes one observation into the normalized schema,
// creating its state and city rows on first reference.
func UpsertRateFact(ctx context.Context, tx kpool.Tx, registry kplaces.Interface, rec domain.RateRecord) error {
	rec.Place = rec.Place.Canonical()

	stateID, err := registry.EnsureState(ctx, tx, rec.State)
	if err != nil {
		return err
	}
	cityID, err := registry.EnsureCity(ctx, tx, rec.City, stateID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "rate_fact" ("city_id", "rate_date", "rate") values ($1, $2, $3)
		on conflict ("city_id", "rate_date") do update set "rate" = excluded."rate"
		`,
		cityID, domain.Day(rec.Date), rec.Rate.Numeric(),
	); err != nil {
		return xe.Wrap(err)
	}
	return nil
}
