package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bfp-network/burnledger/internal/app/domain/balance"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu             sync.RWMutex
	nextProposalID uint64
	proposals      map[uint64]proposal.Proposal
	// nextCommentID survives partition deletion so comment ids are never
	// reused within a proposal's partition.
	nextCommentID map[uint64]uint64
	comments      map[uint64][]proposal.Comment
	sweeps        map[uint64]struct{}
	balances      map[string]balance.Balance
}

var _ storage.ProposalStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.BalanceStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextProposalID: 1,
		proposals:      make(map[uint64]proposal.Proposal),
		nextCommentID:  make(map[uint64]uint64),
		comments:       make(map[uint64][]proposal.Comment),
		sweeps:         make(map[uint64]struct{}),
		balances:       make(map[string]balance.Balance),
	}
}

// ProposalStore implementation ------------------------------------------------

func (s *Store) CreateProposal(_ context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextProposalID
	s.nextProposalID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}

	s.proposals[p.ID] = p
	return p, nil
}

func (s *Store) GetProposal(_ context.Context, id uint64) (proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok {
		return proposal.Proposal{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProposal(_ context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.proposals[p.ID]
	if !ok {
		return proposal.Proposal{}, storage.ErrNotFound
	}

	p.CreatedAt = original.CreatedAt
	s.proposals[p.ID] = p
	return p, nil
}

func (s *Store) DeleteProposal(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.proposals, id)
	return nil
}

func (s *Store) ListProposals(_ context.Context, order proposal.SortMode) ([]proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]proposal.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		var ka, kb int64
		switch proposal.NormalizeSort(order) {
		case proposal.SortByBurns:
			ka, kb = a.Burns.Amount, b.Burns.Amount
		case proposal.SortByTimestamp:
			ka, kb = a.CreatedAt.Unix(), b.CreatedAt.Unix()
		default:
			ka, kb = a.Requested.Amount, b.Requested.Amount
		}
		if ka != kb {
			return ka < kb
		}
		return a.ID < b.ID
	})
	return result, nil
}

// CommentStore implementation -------------------------------------------------

func (s *Store) AppendComment(_ context.Context, c proposal.Comment) (proposal.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.nextCommentID[c.ProposalID]
	if !ok {
		next = 1
	}
	c.ID = next
	s.nextCommentID[c.ProposalID] = next + 1
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}

	s.comments[c.ProposalID] = append(s.comments[c.ProposalID], c)
	return c, nil
}

func (s *Store) ListComments(_ context.Context, proposalID uint64) ([]proposal.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := append([]proposal.Comment(nil), s.comments[proposalID]...)
	// Newest first; equal timestamps keep id order.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return result, nil
}

func (s *Store) DeleteComments(_ context.Context, proposalID uint64, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition := s.comments[proposalID]
	if limit <= 0 || limit > len(partition) {
		limit = len(partition)
	}
	if limit == len(partition) {
		delete(s.comments, proposalID)
	} else {
		s.comments[proposalID] = partition[limit:]
	}
	return limit, nil
}

func (s *Store) EnqueueSweep(_ context.Context, proposalID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweeps[proposalID] = struct{}{}
	return nil
}

func (s *Store) PendingSweeps(_ context.Context) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]uint64, 0, len(s.sweeps))
	for id := range s.sweeps {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (s *Store) DequeueSweep(_ context.Context, proposalID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sweeps, proposalID)
	return nil
}

// BalanceStore implementation -------------------------------------------------

func (s *Store) GetBalance(_ context.Context, account string) (balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[account]
	if !ok {
		return balance.Balance{}, storage.ErrNotFound
	}
	return b, nil
}

func (s *Store) PutBalance(_ context.Context, b balance.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[b.Account] = b
	return nil
}

func (s *Store) DeleteBalance(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[account]; !ok {
		return storage.ErrNotFound
	}
	delete(s.balances, account)
	return nil
}

// Timestamps carry second precision, matching the comment sort key.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
