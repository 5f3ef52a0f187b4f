package utils

import (
	"math"
	"math/big"
	"testing"
)

func TestUSDToTokenUnitsExact(t *testing.T) {
	// $150 of a $1.00 token with 6 decimals = 150_000_000 units.
	wei, err := USDToTokenUnits(150, 1.0, 6)
	if err != nil {
		t.Fatalf("USDToTokenUnits returned error: %v", err)
	}
	if wei.String() != "150000000" {
		t.Errorf("wei = %s, want 150000000", wei.String())
	}
}

func TestUSDToTokenUnitsTruncates(t *testing.T) {
	// $100 of a $3.00 token with 2 decimals = 3333.33... units, floored to 3333.
	wei, err := USDToTokenUnits(100, 3.0, 2)
	if err != nil {
		t.Fatalf("USDToTokenUnits returned error: %v", err)
	}
	if wei.String() != "3333" {
		t.Errorf("wei = %s, want 3333 (truncated, not rounded)", wei.String())
	}
}

func TestUSDToTokenUnitsHighDecimals(t *testing.T) {
	// $250 of a $2500 token with 18 decimals = 0.1 token = 10^17 wei.
	wei, err := USDToTokenUnits(250, 2500, 18)
	if err != nil {
		t.Fatalf("USDToTokenUnits returned error: %v", err)
	}
	want := new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)
	if wei.Cmp(want) != 0 {
		t.Errorf("wei = %s, want %s", wei.String(), want.String())
	}
}

func TestUSDToTokenUnitsFloat64Semantics(t *testing.T) {
	// The conversion must floor the plain float64 expression, not a
	// higher-precision intermediate: for these inputs the two floor to
	// different unit counts.
	cases := []struct {
		amountUSD float64
		priceUSD  float64
		decimals  uint8
	}{
		{250, 2500, 18},
		{0.1, 0.3, 18},
		{100, 3, 18},
		{57.3, 1917.42, 18},
		{0.07, 2.1, 6},
	}
	for _, c := range cases {
		wei, err := USDToTokenUnits(c.amountUSD, c.priceUSD, c.decimals)
		if err != nil {
			t.Fatalf("USDToTokenUnits(%v, %v, %d) returned error: %v", c.amountUSD, c.priceUSD, c.decimals, err)
		}
		want, _ := big.NewFloat(math.Floor(c.amountUSD / c.priceUSD * math.Pow10(int(c.decimals)))).Int(nil)
		if wei.Cmp(want) != 0 {
			t.Errorf("USDToTokenUnits(%v, %v, %d) = %s, want %s",
				c.amountUSD, c.priceUSD, c.decimals, wei.String(), want.String())
		}
	}
}

func TestUSDToTokenUnitsZeroPrice(t *testing.T) {
	if _, err := USDToTokenUnits(10, 0, 18); err == nil {
		t.Error("expected error for zero price, got nil")
	}
}

func TestUSDToTokenUnitsNegativeAmount(t *testing.T) {
	if _, err := USDToTokenUnits(-1, 1, 18); err == nil {
		t.Error("expected error for negative amount, got nil")
	}
}

func TestFormatTokenUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"1234500000000000000", 18, "1.2345"},
		{"150000000", 6, "150"},
		{"42", 0, "42"},
		{"0", 18, "0"},
		{"1", 6, "0.000001"},
	}
	for _, c := range cases {
		amount, _ := new(big.Int).SetString(c.amount, 10)
		got := FormatTokenUnits(amount, c.decimals)
		if got != c.want {
			t.Errorf("FormatTokenUnits(%s, %d) = %q, want %q", c.amount, c.decimals, got, c.want)
		}
	}
}

func TestFormatTokenUnitsNil(t *testing.T) {
	if got := FormatTokenUnits(nil, 18); got != "0" {
		t.Errorf("FormatTokenUnits(nil) = %q, want \"0\"", got)
	}
}
