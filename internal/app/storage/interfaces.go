package storage

import (
	"context"
	"errors"

	"github.com/bfp-network/burnledger/internal/app/domain/balance"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
)

// ErrNotFound is returned when a point lookup misses.
var ErrNotFound = errors.New("record not found")

// ProposalStore persists proposal records. Proposal ids are monotonic and
// never reused, even after deletion.
type ProposalStore interface {
	// CreateProposal assigns the next proposal id and stores the record.
	CreateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error)
	GetProposal(ctx context.Context, id uint64) (proposal.Proposal, error)
	UpdateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error)
	DeleteProposal(ctx context.Context, id uint64) error
	// ListProposals returns every proposal ordered by the requested sort key,
	// ascending, ties broken by id. The listing reflects the same visibility
	// as point lookups.
	ListProposals(ctx context.Context, order proposal.SortMode) ([]proposal.Proposal, error)
}

// CommentStore persists per-proposal comment partitions. Comment ids are
// monotonic within their partition and never reused.
type CommentStore interface {
	// AppendComment assigns the next id within the comment's partition.
	AppendComment(ctx context.Context, c proposal.Comment) (proposal.Comment, error)
	// ListComments returns a partition newest-first, ties broken by id.
	ListComments(ctx context.Context, proposalID uint64) ([]proposal.Comment, error)
	// DeleteComments removes up to limit comments from a partition and
	// returns the number removed. A non-positive limit removes the whole
	// partition.
	DeleteComments(ctx context.Context, proposalID uint64, limit int) (int, error)

	// EnqueueSweep durably marks a partition whose purge was cut short so a
	// background sweeper can finish it. Partitions orphaned by operations
	// that do not purge comments are never enqueued.
	EnqueueSweep(ctx context.Context, proposalID uint64) error
	PendingSweeps(ctx context.Context) ([]uint64, error)
	DequeueSweep(ctx context.Context, proposalID uint64) error
}

// BalanceStore persists burned balances keyed by account.
type BalanceStore interface {
	GetBalance(ctx context.Context, account string) (balance.Balance, error)
	// PutBalance inserts or replaces the account's balance record.
	PutBalance(ctx context.Context, b balance.Balance) error
	DeleteBalance(ctx context.Context, account string) error
}
