package chain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bfp-network/burnledger/internal/app/metrics"
	"github.com/bfp-network/burnledger/internal/app/system"
	"github.com/bfp-network/burnledger/pkg/logger"
)

// queuedAction pairs an action with the id used to trace it through logs.
type queuedAction struct {
	id     string
	action Action
}

// Dispatcher pushes outbound actions to the chain from a single worker.
// Enqueue never blocks the caller: submissions are one-way, and a full
// queue drops the action rather than stalling a committed ledger write.
type Dispatcher struct {
	client  *Client
	queue   chan queuedAction
	timeout time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(client *Client, capacity int, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewDefault("chain-dispatcher")
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &Dispatcher{
		client:  client,
		queue:   make(chan queuedAction, capacity),
		timeout: 15 * time.Second,
		log:     log,
	}
}

func (d *Dispatcher) Name() string { return "chain-dispatcher" }

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case qa := <-d.queue:
				d.push(runCtx, qa)
			}
		}
	}()

	d.log.Info("chain dispatcher started")
	return nil
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Enqueue queues an action for submission. When the queue is full the action
// is dropped and logged; callers never observe the outcome either way.
func (d *Dispatcher) Enqueue(action Action) {
	qa := queuedAction{id: uuid.NewString(), action: action}
	select {
	case d.queue <- qa:
		metrics.SetDispatchQueueDepth(len(d.queue))
		d.log.Debugf("queued %s::%s as %s", action.Account, action.Name, qa.id)
	default:
		metrics.RecordDispatch(action.Name, "dropped")
		d.log.Warnf("dispatch queue full; dropped %s::%s", action.Account, action.Name)
	}
}

func (d *Dispatcher) push(ctx context.Context, qa queuedAction) {
	pushCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.client.PushAction(pushCtx, qa.action); err != nil {
		metrics.RecordDispatch(qa.action.Name, "error")
		d.log.WithError(err).Warnf("push %s failed (%s::%s)", qa.id, qa.action.Account, qa.action.Name)
	} else {
		metrics.RecordDispatch(qa.action.Name, "ok")
		d.log.Infof("pushed %s (%s::%s)", qa.id, qa.action.Account, qa.action.Name)
	}
	metrics.SetDispatchQueueDepth(len(d.queue))
}
