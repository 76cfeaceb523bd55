package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		typ  TransactionType
		in   string
		want string
	}{
		{Expense, "5", "-5"},
		{Expense, "-5", "-5"},
		{Expense, "0.01", "-0.01"},
		{Income, "5", "5"},
		{Income, "-5", "5"},
		{Income, "0", "0"},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ)+"/"+tc.in, func(t *testing.T) {
			got := SignedAmount(tc.typ, decimal.RequireFromString(tc.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("12,34")
	require.NoError(t, err)
	assert.Equal(t, "12.34", d.String())

	d, err = ParseAmount(" 7.5 ")
	require.NoError(t, err)
	assert.Equal(t, "7.5", d.String())

	for _, bad := range []string{"", "  ", "abc", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestSum(t *testing.T) {
	assert.True(t, Sum(nil).IsZero())

	txs := []Transaction{
		{Amount: decimal.NewFromFloat(100.10)},
		{Amount: decimal.NewFromFloat(-40.05)},
		{Amount: decimal.NewFromFloat(-0.05)},
	}
	assert.Equal(t, "60", Sum(txs).String())
}

func TestMonthBounds(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	cases := []struct {
		name      string
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid month",
			at:        time.Date(2025, 3, 15, 12, 0, 0, 0, loc),
			wantStart: time.Date(2025, 3, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2025, 3, 31, 23, 59, 59, 999999999, loc),
		},
		{
			name:      "leap february",
			at:        time.Date(2024, 2, 29, 23, 0, 0, 0, loc),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, 999999999, loc),
		},
		{
			name:      "december",
			at:        time.Date(2025, 12, 1, 0, 0, 0, 0, loc),
			wantStart: time.Date(2025, 12, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2025, 12, 31, 23, 59, 59, 999999999, loc),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := MonthBounds(tc.at)
			assert.True(t, start.Equal(tc.wantStart), "start %s", start)
			assert.True(t, end.Equal(tc.wantEnd), "end %s", end)
		})
	}
}
