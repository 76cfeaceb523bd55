package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthBalance is the signed total of a user's transactions in one month.
type MonthBalance struct {
	Month   time.Month
	Balance decimal.Decimal
}

// MonthBounds returns the first and last instant of the calendar month
// containing t, in t's location. Both ends are inclusive.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
