// Package core provides money handling utilities.
//
// Amounts are decimal values. The stored amount of a transaction carries its
// direction: income is positive and expense is negative.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SignedAmount applies the sign convention of t to the magnitude of amount.
//
// Examples:
//
//	SignedAmount(Expense, 5)  -> -5
//	SignedAmount(Expense, -5) -> -5
//	SignedAmount(Income, -5)  ->  5
func SignedAmount(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	magnitude := amount.Abs()
	if t == Expense {
		return magnitude.Neg()
	}
	return magnitude
}

// ParseAmount parses a decimal string, accepting both dot (12.34) and comma
// (12,34) separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Sum adds the amounts of all transactions. The sum of no transactions is zero.
func Sum(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return total
}
