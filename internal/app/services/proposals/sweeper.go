package proposals

import (
	"context"
	"sync"
	"time"

	"github.com/bfp-network/burnledger/internal/app/metrics"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/system"
	"github.com/bfp-network/burnledger/internal/app/txn"
	"github.com/bfp-network/burnledger/pkg/logger"
)

// Sweeper finishes comment partition purges that Cancel could not complete
// within its per-call batch cap. It only ever touches partitions that were
// explicitly enqueued; partitions left behind by withdrawals stay untouched.
type Sweeper struct {
	comments storage.CommentStore
	ser      *txn.Serializer
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*Sweeper)(nil)

// NewSweeper constructs a sweeper draining the pending purge queue.
func NewSweeper(comments storage.CommentStore, ser *txn.Serializer, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("proposal-sweeper")
	}
	if ser == nil {
		ser = txn.New()
	}
	return &Sweeper{
		comments: comments,
		ser:      ser,
		interval: 30 * time.Second,
		log:      log,
	}
}

func (p *Sweeper) Name() string { return "proposal-sweeper" }

func (p *Sweeper) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.SweepOnce(runCtx)
			}
		}
	}()

	p.log.Info("proposal sweeper started")
	return nil
}

func (p *Sweeper) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// SweepOnce drains every enqueued partition, one batch per lock acquisition
// so callers are never starved behind a long purge.
func (p *Sweeper) SweepOnce(ctx context.Context) {
	pending, err := p.comments.PendingSweeps(ctx)
	if err != nil {
		p.log.WithError(err).Warn("list pending sweeps failed")
		return
	}

	for _, id := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := p.drain(ctx, id); err != nil {
			p.log.WithError(err).Warnf("sweep of partition %d failed", id)
		}
	}
}

func (p *Sweeper) drain(ctx context.Context, id uint64) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var n int
		err := p.ser.Update(func() error {
			var err error
			n, err = p.comments.DeleteComments(ctx, id, sweepBatchSize)
			return err
		})
		if err != nil {
			return err
		}
		metrics.RecordSweep(n)
		if n < sweepBatchSize {
			break
		}
	}

	if err := p.comments.DequeueSweep(ctx, id); err != nil {
		return err
	}
	p.log.Infof("partition %d swept", id)
	return nil
}
