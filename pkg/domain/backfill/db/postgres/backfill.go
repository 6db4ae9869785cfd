package postgres

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
	"github.com/eggrates/eggrate/pkg/domain/backfill"
	kbackfill "github.com/eggrates/eggrate/pkg/domain/backfill/db"
	intpg "github.com/eggrates/eggrate/pkg/domain/internal/db/postgres"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

const DefaultLookbackDays = 30

type pgBackfill struct {
	pool         kpool.Pool
	registry     kplaces.Interface
	lookbackDays int
	logger       *log.Logger
}

type Option func(*pgBackfill) *pgBackfill

// WithLookbackDays bounds how far the per-city historical walk may
// reach. The default of 30 days is a product decision; change it in
// config, not here.
func WithLookbackDays(days int) Option {
	return func(b *pgBackfill) *pgBackfill {
		if 0 < days {
			b.lookbackDays = days
		}
		return b
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *pgBackfill) *pgBackfill {
		b.logger = l
		return b
	}
}

func New(pool kpool.Pool, registry kplaces.Interface, options ...Option) kbackfill.Interface {
	b := &pgBackfill{
		pool:         pool,
		registry:     registry,
		lookbackDays: DefaultLookbackDays,
		logger:       log.Default(),
	}
	for _, option := range options {
		b = option(b)
	}
	return b
}

func (b *pgBackfill) Run(ctx context.Context, day time.Time) (domain.BackfillReport, error) {
	day = domain.Day(day)
	report := domain.BackfillReport{Date: day}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return report, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	known, err := knownPlaces(ctx, tx)
	if err != nil {
		return report, err
	}
	updated, err := updatedToday(ctx, tx, day)
	if err != nil {
		return report, err
	}

	fresh, stale := backfill.Partition(known, updated)
	averages := backfill.StateAverages(fresh)

	lookup := func(place domain.Place, date time.Time) (domain.Rate, bool, error) {
		return legacyRateAt(ctx, tx, place, date)
	}

	for _, place := range stale {
		resolution, ok, err := backfill.Resolve(place, day, averages, b.lookbackDays, lookup)
		if err != nil {
			return report, err
		}
		if !ok {
			b.logger.Printf("backfill: %s has no state average and no rate in %d days; skipped",
				place, b.lookbackDays)
			report.Unresolved = append(report.Unresolved, domain.UnresolvedCity{
				Place:  place,
				Reason: "no state average and no historical rate within the lookback window",
			})
			continue
		}

		rec := domain.RateRecord{Place: place, Date: day, Rate: resolution.Rate}
		if _, err := intpg.UpsertLegacyRate(ctx, tx, rec); err != nil {
			return report, err
		}
		if err := intpg.UpsertRateFact(ctx, tx, b.registry, rec); err != nil {
			return report, err
		}
		report.FilledRows += 1
	}

	filledFacts, err := b.fillFacts(ctx, tx, day, averages)
	if err != nil {
		return report, err
	}
	report.FilledFacts = filledFacts

	if err := tx.Commit(ctx); err != nil {
		return report, xe.Wrap(err)
	}
	return report, nil
}

// fillFacts is the normalized-schema half of the run: any city row
// still missing a rate_fact for the day gets one, preferring the state
// average, then the city's latest fact, then its latest legacy rate.
func (b *pgBackfill) fillFacts(
	ctx context.Context,
	tx kpool.Tx,
	day time.Time,
	averages map[string]domain.Rate,
) (int, error) {
	missing, err := citiesMissingFact(ctx, tx, day)
	if err != nil {
		return 0, err
	}

	filled := 0
	for _, city := range missing {
		rate, ok := averages[city.StateName]
		if !ok {
			rate, ok, err = latestFact(ctx, tx, city.ID)
			if err != nil {
				return filled, err
			}
		}
		if !ok {
			rate, ok, err = latestLegacy(ctx, tx, city.Place())
			if err != nil {
				return filled, err
			}
		}
		if !ok {
			continue
		}

		if _, err := tx.Exec(
			ctx,
			`
			insert into "rate_fact" ("city_id", "rate_date", "rate") values ($1, $2, $3)
			on conflict ("city_id", "rate_date") do update set "rate" = excluded."rate"
			`,
			city.ID, day, rate.Numeric(),
		); err != nil {
			return filled, xe.Wrap(err)
		}
		filled += 1
	}
	return filled, nil
}

// knownPlaces is the union of places seen by either schema.
func knownPlaces(ctx context.Context, tx kpool.Tx) ([]domain.Place, error) {
	rows, err := tx.Query(
		ctx,
		`
		select distinct btrim(lower("city")), btrim(lower("state")) from "egg_rate"
		union
		select "c"."name", "s"."name"
		from "city" as "c"
		inner join "state" as "s" on "c"."state_id" = "s"."id"
		`,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.City, &p.State); err != nil {
			return nil, xe.Wrap(err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return places, nil
}

func updatedToday(ctx context.Context, tx kpool.Tx, day time.Time) (map[domain.Place]domain.Rate, error) {
	rows, err := tx.Query(
		ctx,
		`
		select btrim(lower("city")), btrim(lower("state")), max("rate")
		from "egg_rate"
		where "rate_date" = $1
		group by btrim(lower("city")), btrim(lower("state"))
		`,
		day,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	updated := map[domain.Place]domain.Rate{}
	for rows.Next() {
		var p domain.Place
		var numeric pgtype.Numeric
		if err := rows.Scan(&p.City, &p.State, &numeric); err != nil {
			return nil, xe.Wrap(err)
		}
		rate, err := domain.RateFromNumeric(numeric)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		updated[p] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return updated, nil
}

func legacyRateAt(ctx context.Context, tx kpool.Tx, place domain.Place, date time.Time) (domain.Rate, bool, error) {
	var numeric pgtype.Numeric
	err := tx.QueryRow(
		ctx,
		`
		select max("rate") from "egg_rate"
		where btrim(lower("city")) = $1
		  and btrim(lower("state")) = $2
		  and "rate_date" = $3
		having count(*) > 0
		`,
		place.City, place.State, date,
	).Scan(&numeric)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, xe.Wrap(err)
	}
	rate, err := domain.RateFromNumeric(numeric)
	if err != nil {
		return 0, false, xe.Wrap(err)
	}
	return rate, true, nil
}

func citiesMissingFact(ctx context.Context, tx kpool.Tx, day time.Time) ([]domain.CityRow, error) {
	rows, err := tx.Query(
		ctx,
		`
		select "c"."id", "c"."name", "c"."state_id", "s"."name"
		from "city" as "c"
		inner join "state" as "s" on "c"."state_id" = "s"."id"
		where not exists (
			select 1 from "rate_fact" as "f"
			where "f"."city_id" = "c"."id" and "f"."rate_date" = $1
		)
		`,
		day,
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

func latestFact(ctx context.Context, tx kpool.Tx, cityID int64) (domain.Rate, bool, error) {
	var numeric pgtype.Numeric
	err := tx.QueryRow(
		ctx,
		`
		select "rate" from "rate_fact"
		where "city_id" = $1
		order by "rate_date" desc
		limit 1
		`,
		cityID,
	).Scan(&numeric)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, xe.Wrap(err)
	}
	rate, err := domain.RateFromNumeric(numeric)
	if err != nil {
		return 0, false, xe.Wrap(err)
	}
	return rate, true, nil
}

func latestLegacy(ctx context.Context, tx kpool.Tx, place domain.Place) (domain.Rate, bool, error) {
	var numeric pgtype.Numeric
	err := tx.QueryRow(
		ctx,
		`
		select "rate" from "egg_rate"
		where btrim(lower("city")) = $1 and btrim(lower("state")) = $2
		order by "rate_date" desc
		limit 1
		`,
		place.City, place.State,
	).Scan(&numeric)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, xe.Wrap(err)
	}
	rate, err := domain.RateFromNumeric(numeric)
	if err != nil {
		return 0, false, xe.Wrap(err)
	}
	return rate, true, nil
}
