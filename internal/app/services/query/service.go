// Package query serves the read side: proposal listings, comment feeds and
// balance lookups. It performs no writes.
package query

import (
	"context"

	"github.com/bfp-network/burnledger/internal/app/domain/balance"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/txn"
	"github.com/bfp-network/burnledger/pkg/logger"
)

const (
	// MaxPageSize caps the page size of every listing endpoint.
	MaxPageSize = 50
	// DefaultPageSize applies when the caller does not name a page size.
	DefaultPageSize = 10
)

// ApprovalLookup resolves the provided-approval count for a proposal's
// multisig reference. present is false when no approval record exists at all.
type ApprovalLookup interface {
	ProvidedApprovals(ctx context.Context, proposer, msig string) (count int, present bool, err error)
}

// ProposalDetail is the full proposal record plus its approval count.
type ProposalDetail struct {
	proposal.Proposal
	Approvals int `json:"approvals"`
}

// Service answers read queries against committed ledger state.
type Service struct {
	proposals storage.ProposalStore
	comments  storage.CommentStore
	balances  storage.BalanceStore
	approvals ApprovalLookup
	ser       *txn.Serializer
	log       *logger.Logger
}

// New constructs a query service. approvals may be nil, in which case every
// proposal reads as having zero approvals.
func New(proposals storage.ProposalStore, comments storage.CommentStore, bal storage.BalanceStore, approvals ApprovalLookup, ser *txn.Serializer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("query")
	}
	if ser == nil {
		ser = txn.New()
	}
	return &Service{
		proposals: proposals,
		comments:  comments,
		balances:  bal,
		approvals: approvals,
		ser:       ser,
		log:       log,
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListComments returns up to limit comments of a proposal, most recent
// first, after skipping offset entries.
func (s *Service) ListComments(ctx context.Context, proposalID uint64, limit, offset int) ([]proposal.Comment, error) {
	limit, offset = clampPage(limit, offset)

	var all []proposal.Comment
	err := s.ser.View(func() error {
		var err error
		all, err = s.comments.ListComments(ctx, proposalID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]proposal.Comment, 0, limit)
	for count := 0; count < len(all); count++ {
		if count >= offset && len(result) < limit {
			result = append(result, all[count])
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// GetProposal returns the full proposal record plus its approval count. A
// missing approval record yields count 0, not an error.
func (s *Service) GetProposal(ctx context.Context, id uint64) (ProposalDetail, error) {
	var p proposal.Proposal
	err := s.ser.View(func() error {
		var err error
		p, err = s.proposals.GetProposal(ctx, id)
		return err
	})
	if err != nil {
		return ProposalDetail{}, err
	}

	count, err := s.lookupApprovals(ctx, p.Proposer, p.Msig)
	if err != nil {
		return ProposalDetail{}, err
	}
	return ProposalDetail{Proposal: p, Approvals: count}, nil
}

func (s *Service) lookupApprovals(ctx context.Context, proposer, msig string) (int, error) {
	if s.approvals == nil {
		return 0, nil
	}
	count, present, err := s.approvals.ProvidedApprovals(ctx, proposer, msig)
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, nil
	}
	return count, nil
}

// ListProposals pages through proposals in the requested sort order. Each
// candidate inside the page window is enriched with its approval count;
// candidates whose approval record is entirely absent are skipped without
// consuming the window, so the scan position they occupied is re-used by the
// next candidate.
func (s *Service) ListProposals(ctx context.Context, mode proposal.SortMode, limit, offset int) ([]proposal.Limited, error) {
	limit, offset = clampPage(limit, offset)
	mode = proposal.NormalizeSort(mode)

	var candidates []proposal.Proposal
	err := s.ser.View(func() error {
		var err error
		candidates, err = s.proposals.ListProposals(ctx, mode)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]proposal.Limited, 0, limit)
	count := 0
	for _, p := range candidates {
		if count >= offset && len(result) < limit {
			approvals, present := 0, true
			if s.approvals != nil {
				approvals, present, err = s.approvals.ProvidedApprovals(ctx, p.Proposer, p.Msig)
				if err != nil {
					return nil, err
				}
			}
			if !present {
				continue
			}
			result = append(result, p.Limit(approvals))
		}
		count++
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// GetBalance returns an account's burned balance.
func (s *Service) GetBalance(ctx context.Context, account string) (balance.Balance, error) {
	var b balance.Balance
	err := s.ser.View(func() error {
		var err error
		b, err = s.balances.GetBalance(ctx, account)
		return err
	})
	return b, err
}
