package balances

import (
	"context"
	"errors"
	"testing"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/storage/memory"
)

func TestCreditThenExactDebit(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	b, err := svc.Credit(ctx, "bob", 50000)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if b.Quantity.Amount != 50000 || b.Quantity.Symbol != asset.Burned {
		t.Fatalf("unexpected balance: %+v", b)
	}

	exhausted, err := svc.Debit(ctx, "bob", asset.New(50000, asset.Burned))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !exhausted {
		t.Fatal("exact debit must report exhaustion")
	}

	// The record is deleted, not kept at zero.
	if _, err := svc.Get(ctx, "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after exhaustion, got %v", err)
	}

	// A second debit reports ErrNotFound, not exhaustion again.
	if _, err := svc.Debit(ctx, "bob", asset.New(1, asset.Burned)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPartialDebit(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "bob", 100); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := svc.Credit(ctx, "bob", 50); err != nil {
		t.Fatalf("second credit: %v", err)
	}

	exhausted, err := svc.Debit(ctx, "bob", asset.New(60, asset.Burned))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if exhausted {
		t.Fatal("partial debit must not report exhaustion")
	}

	b, err := svc.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Quantity.Amount != 90 {
		t.Fatalf("expected balance 90, got %d", b.Quantity.Amount)
	}
}

func TestDebitOverBalance(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "bob", 100); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := svc.Debit(ctx, "bob", asset.New(101, asset.Burned)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Balance unchanged after the failed debit.
	b, err := svc.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Quantity.Amount != 100 {
		t.Fatalf("balance changed by failed debit: %d", b.Quantity.Amount)
	}
}

func TestValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "bob", 0); err == nil {
		t.Fatal("expected error for zero credit")
	}
	if _, err := svc.Credit(ctx, "bob", -5); err == nil {
		t.Fatal("expected error for negative credit")
	}
	if _, err := svc.Debit(ctx, "bob", asset.New(0, asset.Burned)); err == nil {
		t.Fatal("expected error for zero debit")
	}
}
