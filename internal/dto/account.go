package dto

import (
	"time"

	"github.com/broce-labs/partsline/internal/entity"
)

// AccountResponse represents a customer account.
type AccountResponse struct {
	ID             int64          `json:"id"`
	AccountName    string         `json:"account_name"`
	BillingAddress string         `json:"billing_address,omitempty"`
	BillingCity    string         `json:"billing_city,omitempty"`
	BillingState   string         `json:"billing_state,omitempty"`
	Users          []UserResponse `json:"users,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FromAccount maps an account entity.
func FromAccount(account *entity.Account) AccountResponse {
	resp := AccountResponse{
		ID:             account.ID,
		AccountName:    account.AccountName,
		BillingAddress: account.BillingAddress,
		BillingCity:    account.BillingCity,
		BillingState:   account.BillingState,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
	for _, user := range account.Users {
		resp.Users = append(resp.Users, FromUser(user))
	}
	return resp
}

// FromAccounts maps a slice of accounts.
func FromAccounts(accounts []*entity.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, FromAccount(account))
	}
	return out
}
