package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	RoleAdmin RoleName = "ADMIN"
	RoleUser  RoleName = "USER"
)

type (
	TransactionType string

	RoleName string

	User struct {
		ID           uuid.UUID
		Username     string
		PasswordHash string
		Roles        []RoleName
	}

	Category struct {
		ID          int64
		Name        string
		Type        TransactionType
		TotalAmount decimal.Decimal
		OwnerID     uuid.UUID
	}

	Transaction struct {
		ID          int64
		Type        TransactionType
		Title       string
		Description string
		Amount      decimal.Decimal // Negative for expenses, positive for income
		IsRecurrent bool
		CreatedAt   time.Time
		OwnerID     uuid.UUID
		CategoryID  *int64 // Nil when the transaction is not in a category
	}
)

// TransactionTypes returns every known transaction type.
func TransactionTypes() []TransactionType {
	return []TransactionType{Income, Expense}
}

// ParseTransactionType matches s against the known types ignoring case and
// surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, bool) {
	candidate := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range TransactionTypes() {
		if string(t) == candidate {
			return t, true
		}
	}
	return "", false
}

func (t TransactionType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// RoleNames returns every known role.
func RoleNames() []RoleName {
	return []RoleName{RoleAdmin, RoleUser}
}

// ParseRoleName matches s against the known roles ignoring case.
func ParseRoleName(s string) (RoleName, bool) {
	candidate := strings.ToUpper(strings.TrimSpace(s))
	for _, r := range RoleNames() {
		if string(r) == candidate {
			return r, true
		}
	}
	return "", false
}

// HasRole reports whether the user was granted role.
func (u User) HasRole(role RoleName) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// MatchesType reports whether t may be attached to the category.
func (c *Category) MatchesType(t *Transaction) bool {
	return t != nil && c.Type == t.Type
}

// Contains reports whether t currently points at the category.
func (c *Category) Contains(t *Transaction) bool {
	return t != nil && t.CategoryID != nil && *t.CategoryID == c.ID
}

// AddTransaction attaches t to the category and adds its amount to the
// running total. It returns false without changes when t is already attached.
// A transaction of a different type is rejected with a TypeMismatch error.
func (c *Category) AddTransaction(t *Transaction) (bool, error) {
	if !c.MatchesType(t) {
		return false, ErrTypeMismatch()
	}
	if c.Contains(t) {
		return false, nil
	}

	id := c.ID
	t.CategoryID = &id
	c.TotalAmount = c.TotalAmount.Add(t.Amount)
	return true, nil
}

// RemoveTransaction detaches t and subtracts its amount from the running
// total. It returns false without changes when t is not attached.
func (c *Category) RemoveTransaction(t *Transaction) bool {
	if !c.Contains(t) {
		return false
	}

	t.CategoryID = nil
	c.TotalAmount = c.TotalAmount.Sub(t.Amount)
	return true
}

// NewTransaction builds a transaction owned by ownerID with the amount
// normalized to the sign convention of t.
func NewTransaction(ownerID uuid.UUID, t TransactionType, title, description string, amount decimal.Decimal, createdAt time.Time) *Transaction {
	return &Transaction{
		Type:        t,
		Title:       strings.TrimSpace(title),
		Description: description,
		Amount:      SignedAmount(t, amount),
		CreatedAt:   createdAt,
		OwnerID:     ownerID,
	}
}

// NextOccurrence returns the open copy of a recurring transaction created at
// now. The copy carries no id and no category. CreatedAt is kept strictly
// after the original's.
func (t *Transaction) NextOccurrence(now time.Time) *Transaction {
	if !now.After(t.CreatedAt) {
		now = t.CreatedAt.Add(time.Nanosecond)
	}
	return &Transaction{
		Type:        t.Type,
		Title:       t.Title,
		Description: t.Description,
		Amount:      t.Amount,
		IsRecurrent: true,
		CreatedAt:   now,
		OwnerID:     t.OwnerID,
	}
}
