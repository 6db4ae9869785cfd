package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eggrates/eggrate/cmd/eggrated/handlers"
	httptestutil "github.com/eggrates/eggrate/internal/testutils/http"
	apirates "github.com/eggrates/eggrate/pkg/api/types/rates"
	"github.com/eggrates/eggrate/pkg/domain"
	kerr "github.com/eggrates/eggrate/pkg/domain/errors"
	dbmock "github.com/eggrates/eggrate/pkg/domain/rates/db/mock"
	"github.com/eggrates/eggrate/pkg/utils/try"
)

func rate(t *testing.T, s string) domain.Rate {
	t.Helper()
	return try.To(domain.ParseRate(s)).OrFatal(t)
}

func TestGetLatestRateHandler(t *testing.T) {
	t.Run("it serves the record from the database as JSON", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.ReadLatest = func(ctx context.Context, place domain.Place) (domain.RateRecord, error) {
			expected := domain.Place{City: "pune", State: "maharashtra"}
			if !place.Equal(expected) {
				t.Errorf("place = %+v, want %+v", place, expected)
			}
			return domain.RateRecord{
				Place: place,
				Date:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				Rate:  rate(t, "5.25"),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/rates/latest?city=Pune&state=Maharashtra")

		testee := handlers.GetLatestRateHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", respRec.Code, http.StatusOK)
		}

		actual := apirates.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		expected := apirates.Detail{
			City: "pune", State: "maharashtra", Date: "2024-03-15", Rate: "5.25",
		}
		if actual != expected {
			t.Errorf("response = %+v, want %+v", actual, expected)
		}
	})

	t.Run("it responds 404 when no data exists in either schema", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.ReadLatest = func(ctx context.Context, place domain.Place) (domain.RateRecord, error) {
			return domain.RateRecord{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/rates/latest?city=nowhere&state=nostate")

		testee := handlers.GetLatestRateHandler(mckRates)
		err := testee(c)

		var httperr *echo.HTTPError
		if !errors.As(err, &httperr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if httperr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", httperr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 400 when city or state is missing", func(t *testing.T) {
		mckRates := dbmock.New() // should not be reached

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/rates/latest?city=pune")

		testee := handlers.GetLatestRateHandler(mckRates)
		err := testee(c)

		var httperr *echo.HTTPError
		if !errors.As(err, &httperr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if httperr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", httperr.Code, http.StatusBadRequest)
		}
		if mckRates.Calls.ReadLatest.Times() != 0 {
			t.Error("the database should not be queried")
		}
	})

	t.Run("it responds 500 on other database errors", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.ReadLatest = func(ctx context.Context, place domain.Place) (domain.RateRecord, error) {
			return domain.RateRecord{}, errors.New("fake error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/rates/latest?city=pune&state=maharashtra")

		testee := handlers.GetLatestRateHandler(mckRates)
		err := testee(c)

		var httperr *echo.HTTPError
		if !errors.As(err, &httperr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if httperr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", httperr.Code, http.StatusInternalServerError)
		}
	})
}

func TestGetRateHistoryHandler(t *testing.T) {
	t.Run("it serves records newest first and passes the limit through", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.ReadHistory = func(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
			if limit != 7 {
				t.Errorf("limit = %d, want %d", limit, 7)
			}
			return []domain.RateRecord{
				{
					Place: place,
					Date:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
					Rate:  rate(t, "5.25"),
				},
				{
					Place: place,
					Date:  time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
					Rate:  rate(t, "5.10"),
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/rates/history?city=pune&state=maharashtra&limit=7")

		testee := handlers.GetRateHistoryHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		actual := []apirates.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		expected := []apirates.Detail{
			{City: "pune", State: "maharashtra", Date: "2024-03-15", Rate: "5.25"},
			{City: "pune", State: "maharashtra", Date: "2024-03-14", Rate: "5.10"},
		}
		if len(actual) != len(expected) {
			t.Fatalf("response = %+v, want %+v", actual, expected)
		}
		for nth := range expected {
			if actual[nth] != expected[nth] {
				t.Errorf("response[%d] = %+v, want %+v", nth, actual[nth], expected[nth])
			}
		}
	})

	t.Run("it serves an empty list, not 404, when no history exists", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.ReadHistory = func(ctx context.Context, place domain.Place, limit int) ([]domain.RateRecord, error) {
			return []domain.RateRecord{}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/rates/history?city=pune&state=maharashtra")

		testee := handlers.GetRateHistoryHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", respRec.Code, http.StatusOK)
		}
		if body := bytes.TrimSpace(respRec.Body.Bytes()); string(body) != "[]" {
			t.Errorf("body = %s, want []", body)
		}
	})

	t.Run("it responds 400 on a negative limit", func(t *testing.T) {
		mckRates := dbmock.New()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/rates/history?city=pune&state=maharashtra&limit=-1")

		testee := handlers.GetRateHistoryHandler(mckRates)
		err := testee(c)

		var httperr *echo.HTTPError
		if !errors.As(err, &httperr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if httperr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", httperr.Code, http.StatusBadRequest)
		}
	})
}

func TestPostRatesHandler(t *testing.T) {
	t.Run("a single new rate responds 201 with status created", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.WriteRate = func(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error) {
			expected := domain.RateRecord{
				Place: domain.Place{City: "pune", State: "maharashtra"},
				Date:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				Rate:  rate(t, "5.25"),
			}
			if !rec.Equal(expected) {
				t.Errorf("record = %+v, want %+v", rec, expected)
			}
			return domain.WriteReceipt{Created: true}, nil
		}

		body := []byte(`{"city": "Pune", "state": "Maharashtra", "date": "2024-03-15", "rate": "5.25"}`)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/rates", bytes.NewReader(body),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostRatesHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Code != http.StatusCreated {
			t.Errorf("status = %d, want %d", respRec.Code, http.StatusCreated)
		}

		actual := apirates.WriteResult{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Status != apirates.StatusCreated {
			t.Errorf("status = %s, want %s", actual.Status, apirates.StatusCreated)
		}
	})

	t.Run("a single updated rate responds 200 with status updated", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.WriteRate = func(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error) {
			return domain.WriteReceipt{Created: false}, nil
		}

		body := []byte(`{"city": "pune", "state": "maharashtra", "rate": "5.25"}`)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/rates", bytes.NewReader(body),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostRatesHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", respRec.Code, http.StatusOK)
		}
	})

	t.Run("a normalized-schema failure surfaces as a warning, not an error", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.WriteRate = func(ctx context.Context, rec domain.RateRecord) (domain.WriteReceipt, error) {
			return domain.WriteReceipt{Created: true, SecondaryErr: errors.New("fake error")}, nil
		}

		body := []byte(`{"city": "pune", "state": "maharashtra", "rate": "5.25"}`)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/rates", bytes.NewReader(body),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostRatesHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		actual := apirates.WriteResult{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Status != apirates.StatusCreated {
			t.Errorf("status = %s, want %s", actual.Status, apirates.StatusCreated)
		}
		if actual.Warning == "" {
			t.Error("warning is empty")
		}
	})

	t.Run("a batch reports per-row outcomes and bad rows do not suppress the rest", func(t *testing.T) {
		mckRates := dbmock.New()
		mckRates.Impl.WriteBatch = func(ctx context.Context, recs []domain.RateRecord) (domain.BatchResult, error) {
			if len(recs) != 2 {
				t.Fatalf("records = %+v, want 2 rows", recs)
			}
			return domain.BatchResult{
				Succeeded: 1,
				Items: []domain.BatchItem{
					{Record: recs[0], Receipt: domain.WriteReceipt{Created: true}},
					{Record: recs[1], Err: errors.New("fake error")},
				},
			}, nil
		}

		body := []byte(`[
			{"city": "pune", "state": "maharashtra", "date": "2024-03-15", "rate": "5.25"},
			{"city": "delhi", "state": "delhi", "date": "2024-03-15", "rate": "not-a-rate"},
			{"city": "jaipur", "state": "rajasthan", "date": "2024-03-15", "rate": "4.90"}
		]`)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/rates", bytes.NewReader(body),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostRatesHandler(mckRates)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", respRec.Code, http.StatusOK)
		}

		actual := apirates.BatchResponse{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}

		if actual.Succeeded != 1 || actual.Failed != 2 {
			t.Errorf(
				"(succeeded, failed) = (%d, %d), want (%d, %d)",
				actual.Succeeded, actual.Failed, 1, 2,
			)
		}
		if len(actual.Results) != 3 {
			t.Fatalf("results = %+v, want 3 rows", actual.Results)
		}

		if actual.Results[0].Status != apirates.StatusCreated {
			t.Errorf("results[0].Status = %s, want %s", actual.Results[0].Status, apirates.StatusCreated)
		}
		if actual.Results[1].Status != apirates.StatusFailed {
			t.Errorf("results[1].Status = %s, want %s", actual.Results[1].Status, apirates.StatusFailed)
		}
		if actual.Results[2].Status != apirates.StatusFailed {
			t.Errorf("results[2].Status = %s, want %s", actual.Results[2].Status, apirates.StatusFailed)
		}
	})

	t.Run("a single malformed rate responds 400", func(t *testing.T) {
		mckRates := dbmock.New()

		body := []byte(`{"city": "pune", "state": "maharashtra", "rate": "-1.00"}`)

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/rates", bytes.NewReader(body),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.PostRatesHandler(mckRates)
		err := testee(c)

		var httperr *echo.HTTPError
		if !errors.As(err, &httperr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if httperr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", httperr.Code, http.StatusBadRequest)
		}
		if mckRates.Calls.WriteRate.Times() != 0 {
			t.Error("the database should not be written")
		}
	})
}
