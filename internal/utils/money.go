package utils

import "math"

// RoundMoney rounds an amount to cents, half away from zero
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percent returns pct percent of amount rounded to cents
func Percent(amount, pct float64) float64 {
	return RoundMoney(amount * pct / 100)
}
