package services

import (
	"context"
	"fmt"
	"net/http"

	"floo/internal/api"
	"floo/internal/core"
)

// BankService performs CRUD against the /banks/ collection.
type BankService struct {
	client *api.Client
}

func NewBankService(client *api.Client) *BankService {
	return &BankService{client: client}
}

// List returns the full current server-side collection. Every call refetches;
// nothing is cached between calls.
func (s *BankService) List(ctx context.Context) ([]core.Bank, error) {
	var banks []core.Bank
	if err := s.client.Do(ctx, http.MethodGet, "banks/", nil, &banks); err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	return banks, nil
}

// Create adds a bank account and returns the server-assigned record,
// including the derived end balance.
func (s *BankService) Create(ctx context.Context, in core.BankCreate) (core.Bank, error) {
	if err := in.Validate(); err != nil {
		return core.Bank{}, err
	}
	var bank core.Bank
	if err := s.client.Do(ctx, http.MethodPost, "banks/", in, &bank); err != nil {
		return core.Bank{}, fmt.Errorf("create bank: %w", err)
	}
	return bank, nil
}

// Update applies a partial update: only the fields set in the input are sent.
func (s *BankService) Update(ctx context.Context, id int64, in core.BankUpdate) (core.Bank, error) {
	if err := in.Validate(); err != nil {
		return core.Bank{}, err
	}
	var bank core.Bank
	if err := s.client.Do(ctx, http.MethodPatch, fmt.Sprintf("banks/%d", id), in, &bank); err != nil {
		return core.Bank{}, fmt.Errorf("update bank: %w", err)
	}
	return bank, nil
}

// Delete removes a bank account. A bank still referenced by transactions
// yields a HasDependents error carrying the server's message.
func (s *BankService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("banks/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete bank: %w", translateDelete(err))
	}
	return nil
}
