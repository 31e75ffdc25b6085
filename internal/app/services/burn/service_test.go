package burn

import (
	"context"
	"errors"
	"testing"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/services/balances"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/storage/memory"
)

type ramRecorder struct {
	calls []ramCall
}

type ramCall struct {
	account string
	bytes   int64
}

func (r *ramRecorder) ReturnRAM(_ context.Context, account string, bytes int64) error {
	r.calls = append(r.calls, ramCall{account: account, bytes: bytes})
	return nil
}

func setup(t *testing.T) (*Service, *memory.Store, *ramRecorder, uint64) {
	t.Helper()
	store := memory.New()
	ram := &ramRecorder{}
	bal := balances.New(store, nil)
	svc := New(bal, store, store, ram, nil, nil)

	p, err := store.CreateProposal(context.Background(), proposal.Proposal{
		Proposer:  "alice",
		Title:     "T",
		Summary:   "S",
		Requested: asset.New(1000000, asset.Symbol{Code: "USD", Precision: 2}),
		Msig:      "msig1",
		Burns:     asset.New(0, asset.Burned),
	})
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	return svc, store, ram, p.ID
}

func TestBurnExactBalance(t *testing.T) {
	svc, store, ram, pid := setup(t)
	ctx := context.Background()

	if _, err := balances.New(store, nil).Credit(ctx, "bob", 50000); err != nil {
		t.Fatalf("credit: %v", err)
	}

	cid, err := svc.Burn(ctx, "bob", "bob", pid, asset.New(50000, asset.Burned), "go!")
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if cid != 1 {
		t.Fatalf("expected comment id 1, got %d", cid)
	}

	if _, err := store.GetBalance(ctx, "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected balance row deleted, got %v", err)
	}

	p, err := store.GetProposal(ctx, pid)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	if p.Burns.String() != "5.0000 BURNED" {
		t.Fatalf("expected burns 5.0000 BURNED, got %s", p.Burns)
	}

	comments, err := store.ListComments(ctx, pid)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Sender != "bob" || comments[0].Message != "go!" {
		t.Fatalf("unexpected comment log: %+v", comments)
	}
	if comments[0].Burned.Amount != 50000 {
		t.Fatalf("comment amount mismatch: %s", comments[0].Burned)
	}

	if len(ram.calls) != 1 || ram.calls[0].account != "bob" || ram.calls[0].bytes != BytesPerBurnRow {
		t.Fatalf("expected one storage credit return for bob, got %+v", ram.calls)
	}
}

func TestBurnPartialBalance(t *testing.T) {
	svc, store, ram, pid := setup(t)
	ctx := context.Background()

	if _, err := balances.New(store, nil).Credit(ctx, "bob", 100000); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := svc.Burn(ctx, "bob", "bob", pid, asset.New(30000, asset.Burned), ""); err != nil {
		t.Fatalf("burn: %v", err)
	}

	b, err := store.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if b.Quantity.Amount != 70000 {
		t.Fatalf("expected remainder 70000, got %d", b.Quantity.Amount)
	}
	if len(ram.calls) != 0 {
		t.Fatalf("partial burn dispatched a storage credit return: %+v", ram.calls)
	}
}

func TestBurnNoBalance(t *testing.T) {
	svc, store, ram, pid := setup(t)
	ctx := context.Background()

	_, err := svc.Burn(ctx, "carol", "carol", pid, asset.New(30000, asset.Burned), "x")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p, err := store.GetProposal(ctx, pid)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	if p.Burns.Amount != 0 {
		t.Fatalf("failed burn mutated proposal: %s", p.Burns)
	}
	comments, err := store.ListComments(ctx, pid)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("failed burn left a comment: %+v", comments)
	}
	if len(ram.calls) != 0 {
		t.Fatalf("failed burn dispatched a storage credit return: %+v", ram.calls)
	}
}

func TestBurnInsufficientBalance(t *testing.T) {
	svc, store, _, pid := setup(t)
	ctx := context.Background()

	if _, err := balances.New(store, nil).Credit(ctx, "bob", 10000); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := svc.Burn(ctx, "bob", "bob", pid, asset.New(20000, asset.Burned), "")
	if !errors.Is(err, balances.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	b, err := store.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if b.Quantity.Amount != 10000 {
		t.Fatalf("failed burn mutated balance: %d", b.Quantity.Amount)
	}
}

func TestBurnValidation(t *testing.T) {
	svc, _, _, pid := setup(t)
	ctx := context.Background()

	if _, err := svc.Burn(ctx, "mallory", "bob", pid, asset.New(1, asset.Burned), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Burn(ctx, "bob", "bob", pid, asset.New(0, asset.Burned), ""); !errors.Is(err, ErrAmountNotPositive) {
		t.Fatalf("expected ErrAmountNotPositive, got %v", err)
	}
	eos := asset.Symbol{Code: "EOS", Precision: 4}
	if _, err := svc.Burn(ctx, "bob", "bob", pid, asset.New(1, eos), ""); !errors.Is(err, ErrWrongCurrency) {
		t.Fatalf("expected ErrWrongCurrency, got %v", err)
	}
}

func TestBurnMissingProposal(t *testing.T) {
	svc, store, _, _ := setup(t)
	ctx := context.Background()

	if _, err := balances.New(store, nil).Credit(ctx, "bob", 10000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	_, err := svc.Burn(ctx, "bob", "bob", 999, asset.New(10000, asset.Burned), "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	b, err := store.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if b.Quantity.Amount != 10000 {
		t.Fatalf("failed burn mutated balance: %d", b.Quantity.Amount)
	}
}
