package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/uuid"
)

// UserModel is the platform's answer to /whoami.
type UserModel struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
}

// AccountModel is one platform account the user can act in.
type AccountModel struct {
	AccountID   uuid.UUID `json:"accountId"`
	AccountName string    `json:"accountName"`
	Permissions []string  `json:"permissions"`
}

// WhoAmI fetches the authenticated user's identity.
func WhoAmI(ctx context.Context, d *Dispatcher, active *ActiveContext) (*UserModel, error) {
	resp, err := d.Execute(ctx, active, Request{
		Method:     http.MethodGet,
		Path:       "/whoami",
		Idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	var user UserModel
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, fmt.Errorf("decoding whoami response: %w", err)
	}
	return &user, nil
}

// ListAccounts fetches the accounts visible to the user, sorted by name.
func ListAccounts(ctx context.Context, d *Dispatcher, active *ActiveContext, userID uuid.UUID) ([]AccountModel, error) {
	resp, err := d.Execute(ctx, active, Request{
		Method:     http.MethodGet,
		Path:       fmt.Sprintf("/users/%s/accounts", userID),
		Idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	var accounts []AccountModel
	if err := json.Unmarshal(resp.Body, &accounts); err != nil {
		return nil, fmt.Errorf("decoding accounts response: %w", err)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountName < accounts[j].AccountName })
	return accounts, nil
}
