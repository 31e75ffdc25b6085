package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/balance"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/storage"
	_ "github.com/lib/pq"
)

func TestGetProposalNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM bfp_proposals").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	store := New(db)
	if _, err := store.GetProposal(context.Background(), 42); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteBalanceNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM bfp_balances").
		WithArgs("bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := New(db)
	if err := store.DeleteBalance(context.Background(), "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := New(db)
	ctx := context.Background()

	p, err := store.CreateProposal(ctx, proposal.Proposal{
		Proposer:  "alice",
		Title:     "T",
		Summary:   "S",
		Requested: asset.New(1000000, asset.Symbol{Code: "EOS", Precision: 4}),
		Msig:      "msig1",
		Burns:     asset.New(0, asset.Burned),
	})
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}

	c, err := store.AppendComment(ctx, proposal.Comment{
		ProposalID: p.ID,
		Burned:     asset.New(50000, asset.Burned),
		Sender:     "bob",
		Message:    "go!",
	})
	if err != nil {
		t.Fatalf("append comment: %v", err)
	}
	if c.ID != 1 {
		t.Fatalf("expected first comment id 1, got %d", c.ID)
	}

	if err := store.PutBalance(ctx, balance.Balance{Account: "bob", Quantity: asset.New(50000, asset.Burned)}); err != nil {
		t.Fatalf("put balance: %v", err)
	}

	if err := store.DeleteProposal(ctx, p.ID); err != nil {
		t.Fatalf("delete proposal: %v", err)
	}

	if err := store.EnqueueSweep(ctx, p.ID); err != nil {
		t.Fatalf("enqueue sweep: %v", err)
	}
	pending, err := store.PendingSweeps(ctx)
	if err != nil {
		t.Fatalf("pending sweeps: %v", err)
	}
	found := false
	for _, id := range pending {
		if id == p.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected partition %d pending, got %v", p.ID, pending)
	}

	if _, err := store.DeleteComments(ctx, p.ID, 100); err != nil {
		t.Fatalf("delete comments: %v", err)
	}
	if err := store.DequeueSweep(ctx, p.ID); err != nil {
		t.Fatalf("dequeue sweep: %v", err)
	}
	if err := store.DeleteBalance(ctx, "bob"); err != nil {
		t.Fatalf("delete balance: %v", err)
	}
}
