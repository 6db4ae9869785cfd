package domain_test

import (
	"math/big"
	"testing"

	"github.com/jackc/pgtype"

	"github.com/eggrates/eggrate/pkg/domain"
)

func TestParseRate(t *testing.T) {
	for name, testcase := range map[string]struct {
		input   string
		want    domain.Rate
		wantErr bool
	}{
		"integer":                  {input: "123", want: 12300},
		"one fractional digit":     {input: "7.5", want: 750},
		"two fractional digits":    {input: "123.45", want: 12345},
		"zero":                     {input: "0", want: 0},
		"surrounding spaces":       {input: " 10.00 ", want: 1000},
		"negative is rejected":     {input: "-1.00", wantErr: true},
		"three fractional digits":  {input: "1.234", wantErr: true},
		"not a number is rejected": {input: "12a", wantErr: true},
		"empty is rejected":        {input: "", wantErr: true},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := domain.ParseRate(testcase.input)
			if testcase.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, but got %v", testcase.input, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != testcase.want {
				t.Errorf("got %v, want %v", got, testcase.want)
			}
		})
	}
}

func TestRate_String(t *testing.T) {
	for input, want := range map[string]string{
		"123.45": "123.45",
		"7.5":    "7.50",
		"0":      "0.00",
		"11":     "11.00",
	} {
		got, err := domain.ParseRate(input)
		if err != nil {
			t.Fatal(err)
		}
		if got.String() != want {
			t.Errorf("ParseRate(%q).String() = %q, want %q", input, got.String(), want)
		}
	}
}

func TestMeanRate(t *testing.T) {
	t.Run("mean of 10 and 12 is 11.00", func(t *testing.T) {
		got, ok := domain.MeanRate([]domain.Rate{1000, 1200})
		if !ok {
			t.Fatal("not ok, unexpectedly")
		}
		if got != 1100 {
			t.Errorf("got %v, want 11.00", got)
		}
	})

	t.Run("rounds half-up to hundredths", func(t *testing.T) {
		// (1.00 + 1.01 + 1.01) / 3 = 1.00666... -> 1.01
		got, ok := domain.MeanRate([]domain.Rate{100, 101, 101})
		if !ok {
			t.Fatal("not ok, unexpectedly")
		}
		if got != 101 {
			t.Errorf("got %v, want 1.01", got)
		}
	})

	t.Run("mean of nothing is not ok", func(t *testing.T) {
		if _, ok := domain.MeanRate(nil); ok {
			t.Error("ok, unexpectedly")
		}
	})
}

func TestRateFromNumeric(t *testing.T) {
	t.Run("numeric with exp -2 round-trips", func(t *testing.T) {
		want := domain.Rate(12345)
		got, err := domain.RateFromNumeric(want.Numeric())
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("whole-number numeric is scaled up", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(42), Exp: 0, Status: pgtype.Present}
		got, err := domain.RateFromNumeric(n)
		if err != nil {
			t.Fatal(err)
		}
		if got != 4200 {
			t.Errorf("got %v, want 42.00", got)
		}
	})

	t.Run("null is rejected", func(t *testing.T) {
		if _, err := domain.RateFromNumeric(pgtype.Numeric{Status: pgtype.Null}); err == nil {
			t.Error("expected error, but got nil")
		}
	})

	t.Run("sub-hundredth precision is rejected", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(12345), Exp: -3, Status: pgtype.Present}
		if _, err := domain.RateFromNumeric(n); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}
