// Package proposals implements the funding proposal lifecycle.
package proposals

import (
	"context"
	"errors"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/metrics"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/txn"
	"github.com/bfp-network/burnledger/pkg/logger"
)

var (
	// ErrUnauthorized is returned when the caller is not the stored proposer.
	ErrUnauthorized = errors.New("caller is not the proposer")
	// ErrTitleTooLong is returned when the title exceeds its length limit.
	ErrTitleTooLong = errors.New("title too long")
	// ErrSummaryTooLong is returned when the summary exceeds its length limit.
	ErrSummaryTooLong = errors.New("summary too long")
	// ErrRequestedNotPositive is returned for a non-positive requested amount.
	ErrRequestedNotPositive = errors.New("requested amount must be positive")
)

const (
	// sweepBatchSize bounds a single comment deletion batch.
	sweepBatchSize = 256
	// maxSweepBatches caps the work a single Cancel call performs. Partitions
	// larger than sweepBatchSize*maxSweepBatches are queued for the sweeper
	// to finish.
	maxSweepBatches = 16
)

// Service manages proposal creation and teardown.
type Service struct {
	store    storage.ProposalStore
	comments storage.CommentStore
	ser      *txn.Serializer
	log      *logger.Logger
}

// New constructs a proposal service.
func New(store storage.ProposalStore, comments storage.CommentStore, ser *txn.Serializer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("proposals")
	}
	if ser == nil {
		ser = txn.New()
	}
	return &Service{store: store, comments: comments, ser: ser, log: log}
}

// Create registers a new proposal and returns its id. The proposer must be
// the authenticated caller.
func (s *Service) Create(ctx context.Context, caller string, p proposal.Proposal) (uint64, error) {
	if p.Proposer != caller {
		return 0, ErrUnauthorized
	}
	if len(p.Title) > proposal.TitleMaxLen {
		return 0, ErrTitleTooLong
	}
	if len(p.Summary) > proposal.SummaryMaxLen {
		return 0, ErrSummaryTooLong
	}
	if !p.Requested.IsPositive() {
		return 0, ErrRequestedNotPositive
	}
	p.Burns = asset.New(0, asset.Burned)

	var created proposal.Proposal
	err := s.ser.Update(func() error {
		var err error
		created, err = s.store.CreateProposal(ctx, p)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Infof("proposal %d created by %s", created.ID, created.Proposer)
	return created.ID, nil
}

// Cancel removes a proposal and purges its comment partition. Deletion runs
// in batches with a per-call cap; remaining is true when the partition still
// holds comments, in which case it is enqueued for the sweeper to finish.
func (s *Service) Cancel(ctx context.Context, caller string, id uint64) (remaining bool, err error) {
	err = s.ser.Update(func() error {
		p, err := s.store.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		if p.Proposer != caller {
			return ErrUnauthorized
		}
		if err := s.store.DeleteProposal(ctx, id); err != nil {
			return err
		}

		for i := 0; i < maxSweepBatches; i++ {
			n, err := s.comments.DeleteComments(ctx, id, sweepBatchSize)
			if err != nil {
				return err
			}
			metrics.RecordSweep(n)
			if n < sweepBatchSize {
				return nil
			}
		}
		remaining = true
		return s.comments.EnqueueSweep(ctx, id)
	})
	if err != nil {
		return false, err
	}

	if remaining {
		s.log.Warnf("proposal %d cancelled with comments remaining; sweeper will finish", id)
	} else {
		s.log.Infof("proposal %d cancelled", id)
	}
	return remaining, nil
}

// Unpropose removes a proposal without touching its comment partition. This
// mirrors Cancel's authorization but deliberately skips the comment purge;
// the leftover partition is kept and is never enqueued for sweeping.
func (s *Service) Unpropose(ctx context.Context, caller string, id uint64) error {
	err := s.ser.Update(func() error {
		p, err := s.store.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		if p.Proposer != caller {
			return ErrUnauthorized
		}
		return s.store.DeleteProposal(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Infof("proposal %d withdrawn", id)
	return nil
}
