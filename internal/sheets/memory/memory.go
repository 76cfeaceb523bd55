package memory

import (
	"context"
	"fmt"
	"sync"

	"expensetracker/internal/sheets"
)

// Store keeps exported rows in memory. It stands in for Google Sheets when no
// spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.RowWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r sheets.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
