package chain

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bfp-network/burnledger/pkg/logger"
)

// MsigApprovals resolves provided-approval counts from the multisig
// contract's approvals table, scoped by proposer.
type MsigApprovals struct {
	client   *Client
	contract string
}

// NewMsigApprovals builds a lookup against the given multisig contract
// account.
func NewMsigApprovals(client *Client, contract string) *MsigApprovals {
	if contract == "" {
		contract = "eosio.msig"
	}
	return &MsigApprovals{client: client, contract: contract}
}

// ProvidedApprovals returns the number of provided approvals on the msig
// proposal. present is false when no approval row exists.
func (m *MsigApprovals) ProvidedApprovals(ctx context.Context, proposer, msig string) (int, bool, error) {
	rows, err := m.client.GetTableRows(ctx, TableRowsRequest{
		Code:       m.contract,
		Scope:      proposer,
		Table:      "approvals2",
		LowerBound: msig,
		UpperBound: msig,
		Limit:      1,
	})
	if err != nil {
		return 0, false, fmt.Errorf("approval lookup %s/%s: %w", proposer, msig, err)
	}

	arr := rows.Array()
	if len(arr) == 0 {
		return 0, false, nil
	}
	return int(arr[0].Get("provided_approvals.#").Int()), true, nil
}

// CachedApprovals caches approval lookups in redis. Absent records are
// cached too, as the sentinel value -1, so repeated listings do not hammer
// the chain API for proposals that never had an approval row.
type CachedApprovals struct {
	next interface {
		ProvidedApprovals(ctx context.Context, proposer, msig string) (int, bool, error)
	}
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewCachedApprovals wraps next with a redis cache.
func NewCachedApprovals(next *MsigApprovals, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedApprovals {
	if log == nil {
		log = logger.NewDefault("approval-cache")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedApprovals{next: next, rdb: rdb, ttl: ttl, log: log}
}

func approvalKey(proposer, msig string) string {
	return "approvals:" + proposer + ":" + msig
}

// ProvidedApprovals serves from the cache when possible, falling through to
// the chain lookup on miss or cache error.
func (c *CachedApprovals) ProvidedApprovals(ctx context.Context, proposer, msig string) (int, bool, error) {
	key := approvalKey(proposer, msig)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		count, convErr := strconv.Atoi(cached)
		if convErr == nil {
			if count < 0 {
				return 0, false, nil
			}
			return count, true, nil
		}
	} else if err != redis.Nil {
		c.log.WithError(err).Debug("approval cache read failed")
	}

	count, present, err := c.next.ProvidedApprovals(ctx, proposer, msig)
	if err != nil {
		return 0, false, err
	}

	stored := count
	if !present {
		stored = -1
	}
	if err := c.rdb.Set(ctx, key, strconv.Itoa(stored), c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("approval cache write failed")
	}
	return count, present, nil
}
