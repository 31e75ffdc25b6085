// Package balances tracks per-account burned balances.
package balances

import (
	"context"
	"errors"
	"fmt"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/balance"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/pkg/logger"
)

// ErrInsufficientBalance is returned when a debit exceeds the stored balance.
var ErrInsufficientBalance = errors.New("insufficient burned balance")

// Service implements balance accrual and spending. Its methods perform no
// locking of their own: callers own the ledger transaction boundary.
type Service struct {
	store storage.BalanceStore
	log   *logger.Logger
}

// New constructs a balance service.
func New(store storage.BalanceStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("balances")
	}
	return &Service{store: store, log: log}
}

// Credit adds amount to the account's balance, creating the record on first
// use. The amount is re-denominated into the internal accounting unit at the
// same numeric magnitude; the source token's symbol is deliberately dropped.
func (s *Service) Credit(ctx context.Context, account string, amount int64) (balance.Balance, error) {
	if amount <= 0 {
		return balance.Balance{}, fmt.Errorf("credit amount must be positive")
	}

	quantity := asset.New(amount, asset.Burned)
	b, err := s.store.GetBalance(ctx, account)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b = balance.Balance{Account: account, Quantity: quantity}
	case err != nil:
		return balance.Balance{}, err
	default:
		b.Quantity, err = b.Quantity.Add(quantity)
		if err != nil {
			return balance.Balance{}, err
		}
	}

	if err := s.store.PutBalance(ctx, b); err != nil {
		return balance.Balance{}, err
	}
	return b, nil
}

// Debit subtracts quantity from the account's balance. When the debit drains
// the balance exactly, the record is deleted and exhausted is true — the
// caller is responsible for triggering the resource-credit return. Debit
// never creates a record; a missing balance is storage.ErrNotFound.
func (s *Service) Debit(ctx context.Context, account string, quantity asset.Asset) (exhausted bool, err error) {
	if !quantity.IsPositive() {
		return false, fmt.Errorf("debit amount must be positive")
	}

	b, err := s.store.GetBalance(ctx, account)
	if err != nil {
		return false, err
	}

	remaining, err := b.Quantity.Sub(quantity)
	if err != nil {
		return false, err
	}
	if remaining.Amount < 0 {
		return false, ErrInsufficientBalance
	}
	if remaining.Amount == 0 {
		if err := s.store.DeleteBalance(ctx, account); err != nil {
			return false, err
		}
		return true, nil
	}

	b.Quantity = remaining
	return false, s.store.PutBalance(ctx, b)
}

// Get returns the account's balance record.
func (s *Service) Get(ctx context.Context, account string) (balance.Balance, error) {
	return s.store.GetBalance(ctx, account)
}
