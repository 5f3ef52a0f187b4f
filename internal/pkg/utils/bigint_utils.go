package utils

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// USDToTokenUnits converts a USD amount into a token's smallest integer unit
// given the token's USD price and decimal precision:
//
//	floor(amountUSD / priceUSD * 10^decimals)
//
// Truncation is deliberate: the resulting amount must never exceed the value
// actually held, so the conversion always rounds down. The arithmetic stays
// in float64, the precision every planning value is carried at; only the
// already-floored result is converted to big.Int, which is lossless.
func USDToTokenUnits(amountUSD float64, priceUSD float64, decimals uint8) (*big.Int, error) {
	if priceUSD <= 0 {
		return nil, fmt.Errorf("cannot convert %.2f USD to token units: price is %v", amountUSD, priceUSD)
	}
	if amountUSD < 0 {
		return nil, fmt.Errorf("cannot convert negative USD amount %v to token units", amountUSD)
	}

	units := math.Floor(amountUSD / priceUSD * math.Pow10(int(decimals)))
	wei, _ := big.NewFloat(units).Int(nil)
	return wei, nil
}

// FormatTokenUnits converts an integer amount in a token's smallest unit to a
// human-readable decimal string, e.g. amount=1234500000000000000, decimals=18
// => "1.2345". Trailing zeros after the decimal point are trimmed.
func FormatTokenUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" || formatted == "-" {
		return "0"
	}
	return formatted
}
