package postgres

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v4"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

type pgPlaces struct {
	pool   kpool.Pool
	logger *log.Logger
}

type Option func(*pgPlaces) *pgPlaces

func WithLogger(l *log.Logger) Option {
	return func(p *pgPlaces) *pgPlaces {
		p.logger = l
		return p
	}
}

func New(pool kpool.Pool, options ...Option) kplaces.Interface {
	p := &pgPlaces{pool: pool, logger: log.Default()}
	for _, option := range options {
		p = option(p)
	}
	return p
}

// EnsureState resolves the id of a state by name, creating the row when
// absent. `on conflict do nothing` leaves a concurrent first-writer's row
// in place; the re-select below then resolves to whichever row survived.
func (p *pgPlaces) EnsureState(ctx context.Context, tx kpool.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(
		ctx, `select "id" from "state" where "name" = $1`, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, xe.Wrap(err)
	}

	err = tx.QueryRow(
		ctx,
		`
		insert into "state" ("name") values ($1)
		on conflict ("name") do nothing
		returning "id"
		`,
		name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, xe.Wrap(err)
	}

	// lost the race. benign: read the surviving row.
	if err := tx.QueryRow(
		ctx, `select "id" from "state" where "name" = $1`, name,
	).Scan(&id); err != nil {
		return 0, xe.Wrap(err)
	}
	return id, nil
}

func (p *pgPlaces) EnsureCity(ctx context.Context, tx kpool.Tx, name string, stateID int64) (int64, error) {
	var id int64
	err := tx.QueryRow(
		ctx,
		`select "id" from "city" where "name" = $1 and "state_id" = $2`,
		name, stateID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, xe.Wrap(err)
	}

	err = tx.QueryRow(
		ctx,
		`
		insert into "city" ("name", "state_id") values ($1, $2)
		on conflict ("name", "state_id") do nothing
		returning "id"
		`,
		name, stateID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, xe.Wrap(err)
	}

	if err := tx.QueryRow(
		ctx,
		`select "id" from "city" where "name" = $1 and "state_id" = $2`,
		name, stateID,
	).Scan(&id); err != nil {
		return 0, xe.Wrap(err)
	}
	return id, nil
}

func (p *pgPlaces) States(ctx context.Context) ([]domain.StateRow, error) {
	rows, err := p.pool.Query(
		ctx, `select "id", "name" from "state" order by "name"`,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	states := []domain.StateRow{}
	for rows.Next() {
		var s domain.StateRow
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, xe.Wrap(err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return states, nil
}

func (p *pgPlaces) Cities(ctx context.Context) ([]domain.CityRow, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select "c"."id", "c"."name", "c"."state_id", "s"."name"
		from "city" as "c"
		inner join "state" as "s" on "c"."state_id" = "s"."id"
		order by "s"."name", "c"."name"
		`,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	cities := []domain.CityRow{}
	for rows.Next() {
		var c domain.CityRow
		if err := rows.Scan(&c.ID, &c.Name, &c.StateID, &c.StateName); err != nil {
			return nil, xe.Wrap(err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return cities, nil
}

func (p *pgPlaces) RemoveCity(ctx context.Context, place domain.Place) (domain.RemovalReceipt, error) {
	place = place.Canonical()
	receipt := domain.RemovalReceipt{}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return receipt, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	// rate_fact rows go with the city through the FK cascade;
	// count them first so the receipt can report it.
	if err := tx.QueryRow(
		ctx,
		`
		select count(*) from "rate_fact"
		where "city_id" in (
			select "c"."id" from "city" as "c"
			inner join "state" as "s" on "c"."state_id" = "s"."id"
			where "c"."name" = $1 and "s"."name" = $2
		)
		`,
		place.City, place.State,
	).Scan(&receipt.FactsDeleted); err != nil {
		return receipt, xe.Wrap(err)
	}

	tag, err := tx.Exec(
		ctx,
		`
		delete from "city"
		where "name" = $1 and "state_id" in (
			select "id" from "state" where "name" = $2
		)
		`,
		place.City, place.State,
	)
	if err != nil {
		return receipt, xe.Wrap(err)
	}
	receipt.CitiesDeleted = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return receipt, xe.Wrap(err)
	}

	receipt.LegacyDeleted, receipt.LegacyErr = p.removeLegacy(
		ctx,
		`delete from "egg_rate" where btrim(lower("city")) = $1 and btrim(lower("state")) = $2`,
		place.City, place.State,
	)
	return receipt, nil
}

func (p *pgPlaces) RemoveState(ctx context.Context, name string) (domain.RemovalReceipt, error) {
	name = domain.CanonicalName(name)
	receipt := domain.RemovalReceipt{}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return receipt, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(
		ctx,
		`
		select count(*) from "rate_fact"
		where "city_id" in (
			select "c"."id" from "city" as "c"
			inner join "state" as "s" on "c"."state_id" = "s"."id"
			where "s"."name" = $1
		)
		`,
		name,
	).Scan(&receipt.FactsDeleted); err != nil {
		return receipt, xe.Wrap(err)
	}

	if err := tx.QueryRow(
		ctx,
		`
		select count(*) from "city"
		where "state_id" in (select "id" from "state" where "name" = $1)
		`,
		name,
	).Scan(&receipt.CitiesDeleted); err != nil {
		return receipt, xe.Wrap(err)
	}

	if _, err := tx.Exec(
		ctx, `delete from "state" where "name" = $1`, name,
	); err != nil {
		return receipt, xe.Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return receipt, xe.Wrap(err)
	}

	receipt.LegacyDeleted, receipt.LegacyErr = p.removeLegacy(
		ctx,
		`delete from "egg_rate" where btrim(lower("state")) = $1`,
		name,
	)
	return receipt, nil
}

// removeLegacy deletes legacy rows by canonical name in its own
// transaction. The normalized deletion above is already committed;
// a failure here is reported to the caller, not raised.
func (p *pgPlaces) removeLegacy(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Printf("legacy-schema removal not started: %s", err)
		return 0, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		p.logger.Printf("legacy-schema removal failed: %s", err)
		return 0, xe.Wrap(err)
	}
	if err := tx.Commit(ctx); err != nil {
		p.logger.Printf("legacy-schema removal failed: %s", err)
		return 0, xe.Wrap(err)
	}
	return tag.RowsAffected(), nil
}
