// Package ingest converts inbound token transfer notifications into burned
// balance credits and forwards the received funds to the fee sink.
package ingest

import (
	"context"
	"errors"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/metrics"
	"github.com/bfp-network/burnledger/internal/app/services/balances"
	"github.com/bfp-network/burnledger/internal/app/txn"
	"github.com/bfp-network/burnledger/pkg/logger"
)

// ErrNotPositive rejects transfer notifications whose quantity is zero or
// negative.
var ErrNotPositive = errors.New("transfer quantity must be positive")

// Memos attached to forwarded transfers.
const (
	nativeForwardMemo    = "Burned from BFP contract"
	secondaryForwardMemo = "Burned from BFP contract via vaulta"
)

// Forwarder dispatches outbound transfers to the fee sink. Implementations
// queue the transfer without waiting for confirmation.
type Forwarder interface {
	// ForwardTransfer sends a native-token transfer to the fee sink.
	ForwardTransfer(ctx context.Context, quantity asset.Asset, memo string) error
	// ForwardSwap sends a conversion request moving secondary-token funds
	// to the fee sink.
	ForwardSwap(ctx context.Context, quantity asset.Asset, memo string) error
}

// Service handles the two transfer notification channels.
type Service struct {
	balances *balances.Service
	fwd      Forwarder
	self     string
	ignore   map[string]struct{}
	ser      *txn.Serializer
	log      *logger.Logger
}

// New constructs an ingest service. self is the account name this ledger
// receives transfers under; ignore lists senders whose native-channel
// transfers are dropped without crediting.
func New(bal *balances.Service, fwd Forwarder, self string, ignore []string, ser *txn.Serializer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ingest")
	}
	if ser == nil {
		ser = txn.New()
	}
	ignored := make(map[string]struct{}, len(ignore))
	for _, account := range ignore {
		ignored[account] = struct{}{}
	}
	return &Service{
		balances: bal,
		fwd:      fwd,
		self:     self,
		ignore:   ignored,
		ser:      ser,
		log:      log,
	}
}

// OnNativeTransfer handles a native-token transfer notification. Transfers
// not addressed to this ledger, sent by it, or originating from a known
// infrastructure account are dropped.
func (s *Service) OnNativeTransfer(ctx context.Context, from, to string, quantity asset.Asset, memo string) error {
	if to != s.self || from == s.self {
		metrics.RecordIngest("native", "ignored")
		return nil
	}
	if _, ok := s.ignore[from]; ok {
		metrics.RecordIngest("native", "ignored")
		return nil
	}
	return s.ingest(ctx, "native", from, quantity, func() error {
		return s.fwd.ForwardTransfer(ctx, quantity, nativeForwardMemo)
	})
}

// OnSecondaryTransfer handles a secondary-token transfer notification. The
// infrastructure ignore list does not apply on this channel.
func (s *Service) OnSecondaryTransfer(ctx context.Context, from, to string, quantity asset.Asset, memo string) error {
	if to != s.self || from == s.self {
		metrics.RecordIngest("secondary", "ignored")
		return nil
	}
	return s.ingest(ctx, "secondary", from, quantity, func() error {
		return s.fwd.ForwardSwap(ctx, quantity, secondaryForwardMemo)
	})
}

// ingest credits the sender by the transfer's numeric magnitude and then
// queues the forwarding transfer. The credit commits first; a forward that
// fails afterwards is logged and not rolled back.
func (s *Service) ingest(ctx context.Context, source, from string, quantity asset.Asset, forward func() error) error {
	if !quantity.IsPositive() {
		metrics.RecordIngest(source, "rejected")
		return ErrNotPositive
	}

	err := s.ser.Update(func() error {
		_, err := s.balances.Credit(ctx, from, quantity.Amount)
		return err
	})
	if err != nil {
		metrics.RecordIngest(source, "error")
		return err
	}

	metrics.RecordIngest(source, "ok")
	s.log.Infof("credited %s with %s from %s transfer", from, asset.New(quantity.Amount, asset.Burned), source)

	if s.fwd != nil {
		if err := forward(); err != nil {
			s.log.WithError(err).Warnf("forwarding %s transfer from %s not dispatched", source, from)
		}
	}
	return nil
}
