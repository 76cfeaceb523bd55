package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

// money renders a decimal as a bare JSON number.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).String()), nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type categoryRequest struct {
	Name         string `json:"name"`
	CategoryType string `json:"categoryType"`
}

type categoryEditRequest struct {
	Name string `json:"name"`
}

type transactionRequest struct {
	TransactionType string           `json:"transactionType"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Amount          *decimal.Decimal `json:"amount"`
}

// transactionEditRequest leaves absent fields untouched.
type transactionEditRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	IsRecurrent *bool            `json:"isRecurrent"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type userResponse struct {
	UserID   uuid.UUID       `json:"userId"`
	Username string          `json:"username"`
	Roles    []core.RoleName `json:"roles"`
}

type transactionResponse struct {
	ID              int64                `json:"id"`
	TransactionType core.TransactionType `json:"transactionType"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Amount          money                `json:"amount"`
	IsRecurrent     bool                 `json:"isRecurrent"`
	CreatedAt       time.Time            `json:"createdAt"`
}

type categoryResponse struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	CategoryType core.TransactionType  `json:"categoryType"`
	TotalAmount  money                 `json:"totalAmount"`
	Transactions []transactionResponse `json:"transactions"`
}

type balanceResponse struct {
	CurrentMonth string `json:"currentMonth"`
	Balance      money  `json:"balance"`
}

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func toLoginResponse(r services.LoginResult) loginResponse {
	return loginResponse{AccessToken: r.AccessToken, ExpiresIn: r.ExpiresIn}
}

func toUserResponses(users []core.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		roles := u.Roles
		if roles == nil {
			roles = []core.RoleName{}
		}
		out = append(out, userResponse{UserID: u.ID, Username: u.Username, Roles: roles})
	}
	return out
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		TransactionType: t.Type,
		Title:           t.Title,
		Description:     t.Description,
		Amount:          money(t.Amount),
		IsRecurrent:     t.IsRecurrent,
		CreatedAt:       t.CreatedAt,
	}
}

func toTransactionResponses(ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toCategoryResponse(c services.CategoryDetails) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		CategoryType: c.Type,
		TotalAmount:  money(c.TotalAmount),
		Transactions: toTransactionResponses(c.Transactions),
	}
}

func toCategoryResponses(cs []services.CategoryDetails) []categoryResponse {
	out := make([]categoryResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

func toBalanceResponse(b core.MonthBalance) balanceResponse {
	return balanceResponse{CurrentMonth: b.Month.String(), Balance: money(b.Balance)}
}
