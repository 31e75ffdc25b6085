package app

import (
	"context"
	"fmt"

	"github.com/bfp-network/burnledger/internal/app/services/balances"
	"github.com/bfp-network/burnledger/internal/app/services/burn"
	"github.com/bfp-network/burnledger/internal/app/services/ingest"
	"github.com/bfp-network/burnledger/internal/app/services/proposals"
	"github.com/bfp-network/burnledger/internal/app/services/query"
	"github.com/bfp-network/burnledger/internal/app/storage"
	"github.com/bfp-network/burnledger/internal/app/storage/memory"
	"github.com/bfp-network/burnledger/internal/app/system"
	"github.com/bfp-network/burnledger/internal/app/txn"
	"github.com/bfp-network/burnledger/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Proposals storage.ProposalStore
	Comments  storage.CommentStore
	Balances  storage.BalanceStore
}

// Outbound bundles the external collaborators. Any of them may be nil: burns
// then skip storage-credit return, ingestion skips forwarding, and listings
// read zero approvals.
type Outbound struct {
	RAM       burn.RAMReturner
	Forwarder ingest.Forwarder
	Approvals query.ApprovalLookup
}

// Config carries the ledger's chain identity.
type Config struct {
	// Self is the account this ledger receives transfers under.
	Self string
	// IgnoredSenders lists native-channel senders to drop without crediting.
	IgnoredSenders []string
}

// Application ties the ledger services together and manages their lifecycle.
// All writes serialize through one transaction lock shared by every service.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Proposals *proposals.Service
	Balances  *balances.Service
	Burn      *burn.Service
	Ingest    *ingest.Service
	Query     *query.Service
}

// New builds a fully initialised application with the provided stores.
func New(cfg Config, stores Stores, outbound Outbound, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if cfg.Self == "" {
		cfg.Self = "bfp"
	}

	mem := memory.New()
	if stores.Proposals == nil {
		stores.Proposals = mem
	}
	if stores.Comments == nil {
		stores.Comments = mem
	}
	if stores.Balances == nil {
		stores.Balances = mem
	}

	manager := system.NewManager()
	ser := txn.New()

	balanceService := balances.New(stores.Balances, log)
	proposalService := proposals.New(stores.Proposals, stores.Comments, ser, log)
	burnService := burn.New(balanceService, stores.Proposals, stores.Comments, outbound.RAM, ser, log)
	ingestService := ingest.New(balanceService, outbound.Forwarder, cfg.Self, cfg.IgnoredSenders, ser, log)
	queryService := query.New(stores.Proposals, stores.Comments, stores.Balances, outbound.Approvals, ser, log)

	for _, name := range []string{"proposals", "burn", "ingest", "query"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	sweeper := proposals.NewSweeper(stores.Comments, ser, log)
	if err := manager.Register(sweeper); err != nil {
		return nil, fmt.Errorf("register %s: %w", sweeper.Name(), err)
	}

	return &Application{
		manager:   manager,
		log:       log,
		Proposals: proposalService,
		Balances:  balanceService,
		Burn:      burnService,
		Ingest:    ingestService,
		Query:     queryService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
