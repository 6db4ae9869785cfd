package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apierr "github.com/eggrates/eggrate/pkg/api/types/errors"
	apirates "github.com/eggrates/eggrate/pkg/api/types/rates"
	"github.com/eggrates/eggrate/pkg/domain"
	kerr "github.com/eggrates/eggrate/pkg/domain/errors"
	krates "github.com/eggrates/eggrate/pkg/domain/rates/db"
	"github.com/eggrates/eggrate/pkg/utils/slices"
)

// GetLatestRateHandler serves the most recent rate for a place.
//
// "no data in either schema" is a well-defined outcome and maps to
// 404 with a structured message.
func GetLatestRateHandler(dbRates krates.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		place, err := queryParamToPlace(c)
		if err != nil {
			return apierr.BadRequest(`query parameters "city" and "state" are required`, err)
		}

		rec, err := dbRates.ReadLatest(ctx, place)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apirates.ComposeDetail(rec))
	}
}

// GetRateHistoryHandler serves rates for a place, newest first.
// An empty history is 200 with an empty list, not 404.
func GetRateHistoryHandler(dbRates krates.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		place, err := queryParamToPlace(c)
		if err != nil {
			return apierr.BadRequest(`query parameters "city" and "state" are required`, err)
		}

		limit := 0
		if p := c.QueryParam("limit"); p != "" {
			limit, err = strconv.Atoi(p)
			if err != nil || limit < 0 {
				return apierr.BadRequest(
					`query parameter "limit" should be a non-negative integer`, err,
				)
			}
		}

		recs, err := dbRates.ReadHistory(ctx, place, limit)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, slices.Map(recs, apirates.ComposeDetail))
	}
}

// PostRatesHandler accepts a single rate or a batch of rates.
//
// Rows are written independently; the response carries a per-row
// outcome and one bad row never suppresses the rest.
func PostRatesHandler(dbRates krates.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var raw json.RawMessage
		decoder := json.NewDecoder(c.Request().Body)
		if err := decoder.Decode(&raw); err != nil {
			return apierr.BadRequest("request body should be a JSON object or array", err)
		}

		items, single, err := decodeWriteItems(raw)
		if err != nil {
			return apierr.BadRequest("request body should be a JSON object or array", err)
		}
		if len(items) == 0 {
			return apierr.BadRequest("request body has no rates", nil)
		}

		now := time.Now()

		if single {
			rec, err := items[0].Record(now)
			if err != nil {
				return apierr.BadRequest(err.Error(), err)
			}
			receipt, err := dbRates.WriteRate(ctx, rec)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			result := apirates.ComposeWriteResult(rec, receipt)
			code := http.StatusOK
			if result.Status == apirates.StatusCreated {
				code = http.StatusCreated
			}
			return c.JSON(code, result)
		}

		// batch. malformed rows are rejected up front; the rest go to
		// storage in one pass and each row succeeds or fails on its own.
		results := make([]apirates.WriteResult, len(items))
		recs := []domain.RateRecord{}
		recIndexes := []int{}
		failed := 0
		for nth, item := range items {
			rec, err := item.Record(now)
			if err != nil {
				failed += 1
				results[nth] = apirates.WriteResult{
					Detail: apirates.Detail{
						City: item.City, State: item.State, Date: item.Date, Rate: item.Rate,
					},
					Status: apirates.StatusFailed,
					Reason: err.Error(),
				}
				continue
			}
			recs = append(recs, rec)
			recIndexes = append(recIndexes, nth)
		}

		batch, err := dbRates.WriteBatch(ctx, recs)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		failed += len(batch.Failed())
		for nth, item := range batch.Items {
			at := recIndexes[nth]
			if item.Err != nil {
				results[at] = apirates.WriteResult{
					Detail: apirates.ComposeDetail(item.Record),
					Status: apirates.StatusFailed,
					Reason: "rate could not be saved",
				}
				continue
			}
			results[at] = apirates.ComposeWriteResult(item.Record, item.Receipt)
		}

		return c.JSON(http.StatusOK, apirates.BatchResponse{
			Succeeded: batch.Succeeded,
			Failed:    failed,
			Results:   results,
		})
	}
}

// decodeWriteItems accepts `{...}` or `[{...}, ...]`.
func decodeWriteItems(raw json.RawMessage) ([]apirates.WriteItem, bool, error) {
	trimmed := bytesTrimLeft(raw)
	if len(trimmed) != 0 && trimmed[0] == '[' {
		var items []apirates.WriteItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false, err
		}
		return items, false, nil
	}

	var item apirates.WriteItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, false, err
	}
	return []apirates.WriteItem{item}, true, nil
}

func bytesTrimLeft(raw []byte) []byte {
	for len(raw) != 0 {
		switch raw[0] {
		case ' ', '\t', '\r', '\n':
			raw = raw[1:]
		default:
			return raw
		}
	}
	return raw
}

func queryParamToPlace(c echo.Context) (domain.Place, error) {
	place := domain.Place{
		City:  c.QueryParam("city"),
		State: c.QueryParam("state"),
	}.Canonical()

	if place.City == "" || place.State == "" {
		return domain.Place{}, errors.New(`"city" and "state" are required`)
	}
	return place, nil
}
