package proposals

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, store, nil, nil), store
}

func validProposal(proposer string) proposal.Proposal {
	return proposal.Proposal{
		Proposer:  proposer,
		Title:     "Fund the relay",
		Summary:   "Build a relay",
		Requested: asset.New(1000000, asset.Symbol{Code: "EOS", Precision: 4}),
		Msig:      "relayfund1",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "bob", validProposal("alice")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	p := validProposal("alice")
	p.Title = strings.Repeat("x", proposal.TitleMaxLen+1)
	if _, err := svc.Create(ctx, "alice", p); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("expected ErrTitleTooLong, got %v", err)
	}

	p = validProposal("alice")
	p.Summary = strings.Repeat("x", proposal.SummaryMaxLen+1)
	if _, err := svc.Create(ctx, "alice", p); !errors.Is(err, ErrSummaryTooLong) {
		t.Fatalf("expected ErrSummaryTooLong, got %v", err)
	}

	p = validProposal("alice")
	p.Requested = asset.New(0, asset.Symbol{Code: "EOS", Precision: 4})
	if _, err := svc.Create(ctx, "alice", p); !errors.Is(err, ErrRequestedNotPositive) {
		t.Fatalf("expected ErrRequestedNotPositive, got %v", err)
	}
}

func TestCreateForcesZeroBurns(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	p := validProposal("alice")
	p.Burns = asset.New(999, asset.Burned)
	id, err := svc.Create(ctx, "alice", p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored, err := store.GetProposal(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Burns.Amount != 0 || stored.Burns.Symbol != asset.Burned {
		t.Fatalf("expected zero BURNED, got %s", stored.Burns)
	}
}

func TestCancelPurgesComments(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", validProposal("alice"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.AppendComment(ctx, proposal.Comment{ProposalID: id, Sender: "bob"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if _, err := svc.Cancel(ctx, "mallory", id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	remaining, err := svc.Cancel(ctx, "alice", id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if remaining {
		t.Fatal("small partition reported remaining")
	}
	if _, err := store.GetProposal(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("proposal survived cancel: %v", err)
	}
	comments, err := store.ListComments(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected empty partition, got %d comments", len(comments))
	}
	pending, err := store.PendingSweeps(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("completed cancel left a sweep queued: %v", pending)
	}
}

func TestCancelOversizePartitionQueuesSweep(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", validProposal("alice"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	total := sweepBatchSize*maxSweepBatches + 5
	for i := 0; i < total; i++ {
		if _, err := store.AppendComment(ctx, proposal.Comment{ProposalID: id, Sender: "bob"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	remaining, err := svc.Cancel(ctx, "alice", id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !remaining {
		t.Fatal("oversize partition not reported remaining")
	}
	pending, err := store.PendingSweeps(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0] != id {
		t.Fatalf("expected sweep queued for %d, got %v", id, pending)
	}

	sweeper := NewSweeper(store, nil, nil)
	sweeper.SweepOnce(ctx)

	comments, err := store.ListComments(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("sweeper left %d comments", len(comments))
	}
	pending, err = store.PendingSweeps(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("sweep not dequeued: %v", pending)
	}
}

func TestUnproposeKeepsComments(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", validProposal("alice"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.AppendComment(ctx, proposal.Comment{ProposalID: id, Sender: "bob"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.Unpropose(ctx, "mallory", id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Unpropose(ctx, "alice", id); err != nil {
		t.Fatalf("unpropose: %v", err)
	}

	if _, err := store.GetProposal(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("proposal survived unpropose: %v", err)
	}
	comments, err := store.ListComments(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("unpropose touched the partition: %d comments", len(comments))
	}

	// The sweeper never reaps partitions it was not told about.
	sweeper := NewSweeper(store, nil, nil)
	sweeper.SweepOnce(ctx)
	comments, err = store.ListComments(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("sweeper reaped an unqueued partition: %d comments", len(comments))
	}
}

func TestCancelMissingProposal(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Cancel(context.Background(), "alice", 404); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
