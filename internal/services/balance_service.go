package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type BalanceService struct {
	repo storage.TransactionStore
	now  func() time.Time
}

// NewBalanceService returns a balance service reading the clock from now,
// or time.Now when now is nil.
func NewBalanceService(repo storage.TransactionStore, now func() time.Time) *BalanceService {
	if now == nil {
		now = time.Now
	}
	return &BalanceService{repo: repo, now: now}
}

// GetCurrentBalance sums the signed amounts of the user's transactions
// created in the current calendar month of the server's local zone.
func (s *BalanceService) GetCurrentBalance(ctx context.Context, userID uuid.UUID) (core.MonthBalance, error) {
	if err := requireUser(userID); err != nil {
		return core.MonthBalance{}, err
	}

	now := s.now().In(time.Local)
	start, end := core.MonthBounds(now)

	ts, err := s.repo.ListTransactionsByOwnerCreatedBetween(ctx, userID, start, end)
	if err != nil {
		return core.MonthBalance{}, fmt.Errorf("list month transactions: %w", err)
	}

	return core.MonthBalance{Month: now.Month(), Balance: core.Sum(ts)}, nil
}
