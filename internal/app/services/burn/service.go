// Package burn implements the burn state machine: debiting an account's
// burned balance, crediting the target proposal, and logging the event.
package burn

import (
	"context"
	"errors"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/metrics"
	"github.com/bfp-network/burnledger/internal/app/services/balances"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/txn"
	"github.com/bfp-network/burnledger/pkg/logger"
)

// BytesPerBurnRow is the storage-credit quantity reserved per balance row,
// released back to the resource market when the row is deleted.
const BytesPerBurnRow = 40

var (
	// ErrUnauthorized is returned when the caller is not the burner.
	ErrUnauthorized = errors.New("caller is not the burner")
	// ErrAmountNotPositive is returned for a zero or negative burn amount.
	ErrAmountNotPositive = errors.New("burn amount must be positive")
	// ErrWrongCurrency is returned when the amount is not denominated in BURNED.
	ErrWrongCurrency = errors.New("burn amount must be denominated in BURNED")
)

// RAMReturner releases reserved storage credit back to the resource market.
// Implementations dispatch the request without waiting for confirmation.
type RAMReturner interface {
	ReturnRAM(ctx context.Context, account string, bytes int64) error
}

// Service coordinates burn execution across balances, proposals and the
// comment log.
type Service struct {
	balances  *balances.Service
	proposals storage.ProposalStore
	comments  storage.CommentStore
	ram       RAMReturner
	ser       *txn.Serializer
	log       *logger.Logger
}

// New constructs a burn service. ram may be nil, in which case storage-credit
// return is skipped.
func New(bal *balances.Service, proposals storage.ProposalStore, comments storage.CommentStore, ram RAMReturner, ser *txn.Serializer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("burn")
	}
	if ser == nil {
		ser = txn.New()
	}
	return &Service{
		balances:  bal,
		proposals: proposals,
		comments:  comments,
		ram:       ram,
		ser:       ser,
		log:       log,
	}
}

// Burn debits amount from the burner's balance, credits the proposal's burn
// total and appends a comment carrying the optional message. The three writes
// commit as one unit. When the debit empties the balance row the reserved
// storage credit is returned after commit; that dispatch is one-way and its
// failure does not undo the burn.
func (s *Service) Burn(ctx context.Context, caller, burner string, proposalID uint64, amount asset.Asset, message string) (uint64, error) {
	if caller != burner {
		return 0, ErrUnauthorized
	}
	if !amount.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	if amount.Symbol != asset.Burned {
		return 0, ErrWrongCurrency
	}

	var (
		exhausted bool
		comment   proposal.Comment
	)
	err := s.ser.Update(func() error {
		p, err := s.proposals.GetProposal(ctx, proposalID)
		if err != nil {
			return err
		}

		exhausted, err = s.balances.Debit(ctx, burner, amount)
		if err != nil {
			return err
		}

		p.Burns, err = p.Burns.Add(amount)
		if err != nil {
			return err
		}
		if _, err := s.proposals.UpdateProposal(ctx, p); err != nil {
			return err
		}

		comment, err = s.comments.AppendComment(ctx, proposal.Comment{
			ProposalID: proposalID,
			Burned:     amount,
			Sender:     burner,
			Message:    message,
		})
		return err
	})
	if err != nil {
		metrics.RecordBurn("error", 0)
		return 0, err
	}

	metrics.RecordBurn("ok", amount.Amount)
	s.log.Infof("%s burned %s on proposal %d", burner, amount, proposalID)

	if exhausted && s.ram != nil {
		if err := s.ram.ReturnRAM(ctx, burner, BytesPerBurnRow); err != nil {
			s.log.WithError(err).Warnf("storage credit return for %s not dispatched", burner)
		}
	}
	return comment.ID, nil
}
