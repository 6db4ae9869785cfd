// Package backfill fills the gaps the scraper leaves: every known city
// should have a rate for the day, synthesized from its state's average
// or from bounded historical lookback when the scraper skipped it.
package backfill

import (
	"time"

	"github.com/eggrates/eggrate/pkg/domain"
)

type CityRate struct {
	Place domain.Place
	Rate  domain.Rate
}

type Source string

const (
	SourceStateAverage Source = "state_average"
	SourceLookback     Source = "lookback"
	SourceLatestFact   Source = "latest_fact"
	SourceLatestLegacy Source = "latest_legacy"
)

type Resolution struct {
	Place  domain.Place
	Rate   domain.Rate
	Source Source
}

// Partition splits the known cities into those with a fresh observation
// for the day and those without.
func Partition(known []domain.Place, updated map[domain.Place]domain.Rate) (fresh []CityRate, stale []domain.Place) {
	for _, place := range known {
		if rate, ok := updated[place]; ok {
			fresh = append(fresh, CityRate{Place: place, Rate: rate})
		} else {
			stale = append(stale, place)
		}
	}
	return fresh, stale
}

// StateAverages computes, for each state with at least one fresh city,
// the arithmetic mean of its fresh rates. The average is the preferred
// fill value for the state's stale cities.
func StateAverages(fresh []CityRate) map[string]domain.Rate {
	byState := map[string][]domain.Rate{}
	for _, cr := range fresh {
		byState[cr.Place.State] = append(byState[cr.Place.State], cr.Rate)
	}

	averages := map[string]domain.Rate{}
	for state, rates := range byState {
		if mean, ok := domain.MeanRate(rates); ok {
			averages[state] = mean
		}
	}
	return averages
}

// Lookup probes one historical data point: the rate of place on date.
// ok is false when no such observation exists.
type Lookup func(place domain.Place, date time.Time) (rate domain.Rate, ok bool, err error)

// Resolve finds a fill value for a city with no observation on day.
//
// The state average wins when one exists. Otherwise the lookup walks
// backward day by day, from day-1 down to day-lookbackDays, and the
// first hit wins. A value older than the bound is never used; the city
// stays unresolved (ok = false) and the caller reports it.
func Resolve(
	place domain.Place,
	day time.Time,
	averages map[string]domain.Rate,
	lookbackDays int,
	lookup Lookup,
) (Resolution, bool, error) {
	if avg, ok := averages[place.State]; ok {
		return Resolution{Place: place, Rate: avg, Source: SourceStateAverage}, true, nil
	}

	day = domain.Day(day)
	for back := 1; back <= lookbackDays; back += 1 {
		rate, ok, err := lookup(place, day.AddDate(0, 0, -back))
		if err != nil {
			return Resolution{}, false, err
		}
		if ok {
			return Resolution{Place: place, Rate: rate, Source: SourceLookback}, true, nil
		}
	}
	return Resolution{}, false, nil
}
