package sheets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row is one line of the transaction export sheet. Event is empty for rows
// that record a new transaction and names the change for audit rows.
type Row struct {
	Event         string
	CreatedAt     time.Time
	TransactionID int64
	Type          string
	Title         string
	Amount        decimal.Decimal
	OwnerID       uuid.UUID
}

// Header is the first row of a fresh export sheet.
var Header = []any{"createdAt", "transactionId", "transactionType", "title", "amount", "ownerId"}

// Values lays the row out in sheet column order. Audit rows carry the event
// name in place of the creation time.
func (r Row) Values() []any {
	first := r.CreatedAt.Format(time.RFC3339)
	if r.Event != "" {
		first = r.Event
	}
	return []any{first, r.TransactionID, r.Type, r.Title, r.Amount.String(), r.OwnerID.String()}
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		Append(ctx context.Context, r Row) (rowRef string, err error)
	}
)
