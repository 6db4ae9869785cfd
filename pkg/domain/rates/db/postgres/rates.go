package postgres

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgconn"
	pgerrcode "github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
	dberr "github.com/eggrates/eggrate/pkg/domain/errors/dberrors/postgres"
	intpg "github.com/eggrates/eggrate/pkg/domain/internal/db/postgres"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
	krates "github.com/eggrates/eggrate/pkg/domain/rates/db"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

type pgRates struct {
	pool     kpool.Pool
	registry kplaces.Interface
	logger   *log.Logger
}

type Option func(*pgRates) *pgRates

func WithLogger(l *log.Logger) Option {
	return func(r *pgRates) *pgRates {
		r.logger = l
		return r
	}
}

func New(pool kpool.Pool, registry kplaces.Interface, options ...Option) krates.Interface {
	r := &pgRates{pool: pool, registry: registry, logger: log.Default()}
	for _, option := range options {
		r = option(r)
	}
	return r
}

func (r *pgRates) ReadLatest(ctx context.Context, place domain.Place) (domain.RateRecord, error) {
	recs, err := r.read(ctx, place, 1)
	if err != nil {
		return domain.RateRecord{}, err
	}
	return recs[0], nil
}

func (r *pgRates) ReadHistory(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
	return r.read(ctx, place, limit)
}

// read queries the normalized schema first and falls through to the
// legacy table only when the normalized schema has no rows at all.
func (r *pgRates) read(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
	place = place.Canonical()

	recs, err := r.readFacts(ctx, place, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) != 0 {
		return recs, nil
	}

	recs, err = r.readLegacy(ctx, place, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) != 0 {
		return recs, nil
	}
	return nil, xe.Wrap(dberr.Missing{Table: "egg_rate", Identity: place.String()})
}

func (r *pgRates) readFacts(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
	rows, err := r.pool.Query(
		ctx,
		`
		select "c"."name", "s"."name", "f"."rate_date", "f"."rate"
		from "rate_fact" as "f"
		inner join "city" as "c" on "f"."city_id" = "c"."id"
		inner join "state" as "s" on "c"."state_id" = "s"."id"
		where "c"."name" = $1 and "s"."name" = $2
		order by "f"."rate_date" desc
		limit nullif($3, 0)
		`,
		place.City, place.State, max(limit, 0),
	)
	if err != nil {
		// a fresh install may not have normalized tables yet.
		// never fatal: the legacy table answers instead.
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UndefinedTable {
			return nil, nil
		}
		return nil, xe.Wrap(err)
	}
	defer rows.Close()
	return scanRateRows(rows)
}

func (r *pgRates) readLegacy(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
	rows, err := r.pool.Query(
		ctx,
		`
		select "city", "state", "rate_date", "rate"
		from "egg_rate"
		where btrim(lower("city")) = $1 and btrim(lower("state")) = $2
		order by "rate_date" desc, "rate" desc
		limit nullif($3, 0)
		`,
		place.City, place.State, max(limit, 0),
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()
	return scanRateRows(rows)
}

func (r *pgRates) WriteRate(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error) {
	rec.Place = rec.Place.Canonical()
	receipt := domain.WriteReceipt{}

	// primary: the legacy table is the source of truth.
	{
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return receipt, xe.Wrap(err)
		}
		defer tx.Rollback(ctx)

		created, err := intpg.UpsertLegacyRate(ctx, tx, rec)
		if err != nil {
			return receipt, err
		}
		if err := tx.Commit(ctx); err != nil {
			return receipt, xe.Wrap(err)
		}
		receipt.Created = created
	}

	// secondary: best-effort. the committed legacy write stands
	// whatever happens below.
	if err := r.writeFact(ctx, rec); err != nil {
		r.logger.Printf("normalized-schema write failed for %s @ %s: %s",
			rec.Place, domain.Day(rec.Date).Format("2006-01-02"), err)
		receipt.SecondaryErr = err
	}
	return receipt, nil
}

func (r *pgRates) writeFact(ctx context.Context, rec domain.RateRecord) error {
	err := r.writeFactOnce(ctx, rec)
	if err == nil {
		return nil
	}
	// a unique violation here is a get-or-create race with another
	// writer creating the same city; the surviving row serves on retry.
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UniqueViolation {
		return r.writeFactOnce(ctx, rec)
	}
	return err
}

func (r *pgRates) writeFactOnce(ctx context.Context, rec domain.RateRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	if err := intpg.UpsertRateFact(ctx, tx, r.registry, rec); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return xe.Wrap(err)
	}
	return nil
}

func (r *pgRates) WriteBatch(ctx context.Context, recs []domain.RateRecord) (domain.BatchResult, error) {
	result := domain.BatchResult{Items: make([]domain.BatchItem, 0, len(recs))}
	for _, rec := range recs {
		receipt, err := r.WriteRate(ctx, rec)
		if err == nil {
			result.Succeeded += 1
		}
		result.Items = append(result.Items, domain.BatchItem{
			Record: rec, Receipt: receipt, Err: err,
		})
	}
	return result, nil
}

func scanRateRows(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]domain.RateRecord, error) {
	recs := []domain.RateRecord{}
	for rows.Next() {
		var rec domain.RateRecord
		var numeric pgtype.Numeric
		if err := rows.Scan(&rec.City, &rec.State, &rec.Date, &numeric); err != nil {
			return nil, xe.Wrap(err)
		}
		rate, err := domain.RateFromNumeric(numeric)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		rec.Rate = rate
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return recs, nil
}
