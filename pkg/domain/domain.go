package domain

import (
	"strings"
	"time"

	"github.com/eggrates/eggrate/pkg/utils/slices"
)

// Place identifies a city within a state.
//
// City and state names arrive as free text from scrapers and admins.
// Matching across tables is done on the canonical form only; apply
// Canonical() on every write path.
type Place struct {
	City  string
	State string
}

func (p Place) Canonical() Place {
	return Place{
		City:  CanonicalName(p.City),
		State: CanonicalName(p.State),
	}
}

func (p Place) Equal(o Place) bool {
	return p.City == o.City && p.State == o.State
}

func (p Place) String() string {
	return p.City + ", " + p.State
}

// CanonicalName trims surrounding whitespace and case-folds.
// No further normalization; "New Delhi" and "Delhi" stay distinct places.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Day truncates a timestamp to its UTC date. Rates are daily facts;
// all date keys in storage are produced through this.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RateRecord is one daily observation in the legacy flat representation.
type RateRecord struct {
	Place
	Date time.Time
	Rate Rate
}

func (r RateRecord) Equal(o RateRecord) bool {
	return r.Place.Equal(o.Place) &&
		Day(r.Date).Equal(Day(o.Date)) &&
		r.Rate == o.Rate
}

type StateRow struct {
	ID   int64
	Name string
}

type CityRow struct {
	ID        int64
	Name      string
	StateID   int64
	StateName string
}

func (c CityRow) Place() Place {
	return Place{City: c.Name, State: c.StateName}
}

// RateFact is one daily observation in the normalized representation.
// Unique per (CityID, Date).
type RateFact struct {
	ID     int64
	CityID int64
	Date   time.Time
	Rate   Rate
}

// ArchiveRecord is a flattened cold-storage copy of a rate row.
// It keeps no referential integrity back to City/State.
type ArchiveRecord struct {
	Place
	Date       time.Time
	Rate       Rate
	ArchivedAt time.Time
}

// WriteReceipt reports the outcome of a single rate write.
//
// The legacy write is authoritative; when it succeeds but the
// normalized-schema write fails, SecondaryErr carries that failure
// and the write as a whole still counts as successful.
type WriteReceipt struct {
	Created      bool
	SecondaryErr error
}

type BatchItem struct {
	Record  RateRecord
	Receipt WriteReceipt
	Err     error
}

// BatchResult aggregates per-row outcomes of a multi-row write.
// One row failing never suppresses the rest; Items keeps request order.
type BatchResult struct {
	Succeeded int
	Items     []BatchItem
}

func (b BatchResult) Failed() []BatchItem {
	return slices.Filter(b.Items, func(item BatchItem) bool { return item.Err != nil })
}

type UnresolvedCity struct {
	Place
	Reason string
}

// BackfillReport is the outcome of one daily backfill run.
type BackfillReport struct {
	Date        time.Time
	FilledRows  int
	FilledFacts int
	Unresolved  []UnresolvedCity
}

// RetentionReport is the outcome of one archive-then-purge run.
//
// SecondaryErr records a normalized-schema archival/deletion failure,
// which does not abort the legacy-schema steps.
type RetentionReport struct {
	Cutoff         time.Time
	LegacyArchived int64
	LegacyDeleted  int64
	FactsArchived  int64
	FactsDeleted   int64
	SecondaryErr   error
}

// RemovalReceipt is the outcome of an administrative city/state removal.
//
// Fact deletion cascades through foreign keys; legacy rows are removed
// by name in a separate best-effort step whose failure lands in LegacyErr.
type RemovalReceipt struct {
	CitiesDeleted int64
	FactsDeleted  int64
	LegacyDeleted int64
	LegacyErr     error
}
