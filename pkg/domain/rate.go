package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgtype"
)

// Rate is a non-negative money amount with exactly two fractional digits,
// counted in hundredths. The store performs no currency conversion.
type Rate int64

func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("rate is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("rate %q is negative", s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("rate %q has more than 2 fractional digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var value int64
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || '9' < c {
				return 0, fmt.Errorf("rate %q is not a number", s)
			}
			value = value*10 + int64(c-'0')
			if value < 0 {
				return 0, fmt.Errorf("rate %q is out of range", s)
			}
		}
	}
	return Rate(value), nil
}

func (r Rate) String() string {
	return fmt.Sprintf("%d.%02d", int64(r)/100, int64(r)%100)
}

func (r Rate) Float64() float64 {
	return float64(r) / 100
}

// MeanRate is the arithmetic mean of rates, rounded half-up to hundredths.
// Mean of an empty slice is reported as not-ok.
func MeanRate(rates []Rate) (Rate, bool) {
	if len(rates) == 0 {
		return 0, false
	}
	var sum int64
	for _, r := range rates {
		sum += int64(r)
	}
	n := int64(len(rates))
	return Rate((sum*2 + n) / (n * 2)), true
}

// Numeric renders the rate as a NUMERIC value for query arguments.
func (r Rate) Numeric() pgtype.Numeric {
	return pgtype.Numeric{
		Int:    big.NewInt(int64(r)),
		Exp:    -2,
		Status: pgtype.Present,
	}
}

// RateFromNumeric converts a scanned NUMERIC column into a Rate.
// Values with more than two fractional digits are rejected; the rate
// columns are declared NUMERIC(10,2), so this only trips on misuse.
func RateFromNumeric(n pgtype.Numeric) (Rate, error) {
	if n.Status != pgtype.Present {
		return 0, fmt.Errorf("rate column is null")
	}
	if n.NaN {
		return 0, fmt.Errorf("rate column is NaN")
	}

	v := new(big.Int).Set(n.Int)
	shift := int64(n.Exp) + 2
	switch {
	case shift > 0:
		exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil)
		v.Mul(v, exp)
	case shift < 0:
		exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil)
		rem := new(big.Int)
		v.QuoRem(v, exp, rem)
		if rem.Sign() != 0 {
			return 0, fmt.Errorf("rate has more than 2 fractional digits: %s * 10^%d", n.Int, n.Exp)
		}
	}

	if !v.IsInt64() {
		return 0, fmt.Errorf("rate is out of range: %s * 10^%d", n.Int, n.Exp)
	}
	h := v.Int64()
	if h < 0 {
		return 0, fmt.Errorf("rate is negative: %s * 10^%d", n.Int, n.Exp)
	}
	return Rate(h), nil
}
