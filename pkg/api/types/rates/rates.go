package rates

import (
	"errors"
	"fmt"
	"time"

	"github.com/eggrates/eggrate/pkg/domain"
)

// DateFormat is the wire format of every date in this API.
const DateFormat = "2006-01-02"

type Detail struct {
	City  string `json:"city"`
	State string `json:"state"`
	Date  string `json:"date"`
	Rate  string `json:"rate"`
}

func ComposeDetail(r domain.RateRecord) Detail {
	return Detail{
		City:  r.City,
		State: r.State,
		Date:  r.Date.Format(DateFormat),
		Rate:  r.Rate.String(),
	}
}

// WriteItem is one rate in a write request.
//
// Date is optional; when empty, the record is dated "today" at the
// server.
type WriteItem struct {
	City  string `json:"city"`
	State string `json:"state"`
	Date  string `json:"date,omitempty"`
	Rate  string `json:"rate"`
}

var ErrBadWriteItem = errors.New("bad write item")

// Record validates the item and converts it to a storage record.
// City and state names are canonicalized on the way.
func (wi WriteItem) Record(now time.Time) (domain.RateRecord, error) {
	place := domain.Place{City: wi.City, State: wi.State}.Canonical()
	if place.City == "" {
		return domain.RateRecord{}, fmt.Errorf(`%w: "city" is required`, ErrBadWriteItem)
	}
	if place.State == "" {
		return domain.RateRecord{}, fmt.Errorf(`%w: "state" is required`, ErrBadWriteItem)
	}

	rate, err := domain.ParseRate(wi.Rate)
	if err != nil {
		return domain.RateRecord{}, fmt.Errorf(`%w: "rate" %s`, ErrBadWriteItem, err)
	}

	date := domain.Day(now)
	if wi.Date != "" {
		d, err := time.ParseInLocation(DateFormat, wi.Date, time.UTC)
		if err != nil {
			return domain.RateRecord{}, fmt.Errorf(
				`%w: "date" should be formatted as %s`, ErrBadWriteItem, DateFormat,
			)
		}
		date = d
	}

	return domain.RateRecord{Place: place, Date: date, Rate: rate}, nil
}

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusFailed  = "failed"
)

// WriteResult is the per-row outcome of a write.
//
// Warning carries a normalized-schema failure; the row is still
// written and the status stays created/updated.
type WriteResult struct {
	Detail
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func ComposeWriteResult(rec domain.RateRecord, receipt domain.WriteReceipt) WriteResult {
	status := StatusUpdated
	if receipt.Created {
		status = StatusCreated
	}
	warning := ""
	if receipt.SecondaryErr != nil {
		warning = "rate saved; the normalized copy is stale until the next backfill"
	}
	return WriteResult{
		Detail:  ComposeDetail(rec),
		Status:  status,
		Warning: warning,
	}
}

type BatchResponse struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []WriteResult `json:"results"`
}
