package services

import (
	"context"
	"fmt"
	"net/http"

	"floo/internal/api"
	"floo/internal/core"
)

// TransactionService performs CRUD against the /transactions/ collection.
type TransactionService struct {
	client *api.Client
}

func NewTransactionService(client *api.Client) *TransactionService {
	return &TransactionService{client: client}
}

// List returns the full current server-side collection.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	var transactions []core.Transaction
	if err := s.client.Do(ctx, http.MethodGet, "transactions/", nil, &transactions); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

func (s *TransactionService) Create(ctx context.Context, in core.TransactionCreate) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var tx core.Transaction
	if err := s.client.Do(ctx, http.MethodPost, "transactions/", in, &tx); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

// Update applies a partial update: only the fields set in the input are sent.
func (s *TransactionService) Update(ctx context.Context, id int64, in core.TransactionUpdate) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var tx core.Transaction
	if err := s.client.Do(ctx, http.MethodPatch, fmt.Sprintf("transactions/%d", id), in, &tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("transactions/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}
