// Package app composes the burn ledger services into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── asset/          # Fixed-precision monetary amounts
//	│   ├── balance/        # Per-account burned balances
//	│   └── proposal/       # Proposals and their comment feed
//	├── storage/            # Store interfaces and implementations
//	│   ├── interfaces.go   # ProposalStore, CommentStore, BalanceStore
//	│   ├── memory/         # In-memory implementation for testing
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/           # Business logic
//	│   ├── balances/       # Balance accrual and debiting
//	│   ├── proposals/      # Proposal lifecycle and comment sweeping
//	│   ├── burn/           # The burn state machine
//	│   ├── ingest/         # Transfer notification intake
//	│   └── query/          # Read side: listings and pagination
//	├── httpapi/            # REST handlers, auth, middleware
//	├── txn/                # The per-ledger write serializer
//	├── system/             # Lifecycle management
//	└── metrics/            # Prometheus collectors
//
// All writes flow through a single txn.Serializer shared by every service, so
// each external operation runs to completion with no interleaving, matching
// the serialized-transaction semantics the ledger's invariants assume.
// Outbound chain actions are queued only after the owning write commits.
package app
