package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
)

const ramReturnMemo = "Return RAM from BFP contract"

// Accounts names the chain accounts the ledger interacts with.
type Accounts struct {
	// Self is the account this ledger acts as.
	Self string
	// FeeSink receives forwarded funds for burning.
	FeeSink string
	// NativeToken is the native token contract.
	NativeToken string
	// SecondaryToken is the secondary token contract with swap support.
	SecondaryToken string
	// System is the system contract handling RAM transfers.
	System string
	// Msig is the multisig contract carrying approval records.
	Msig string
}

// DefaultAccounts returns the production account layout.
func DefaultAccounts() Accounts {
	return Accounts{
		Self:           "bfp",
		FeeSink:        "eosio.fees",
		NativeToken:    "eosio.token",
		SecondaryToken: "core.vaulta",
		System:         "eosio",
		Msig:           "eosio.msig",
	}
}

// IgnoredSenders lists native-channel senders whose transfers are dropped
// without crediting a balance.
func (a Accounts) IgnoredSenders() []string {
	return []string{a.FeeSink, a.SecondaryToken, "eosio.ram", "eosio.stake"}
}

// Actions builds and queues the ledger's outbound chain actions.
type Actions struct {
	dispatcher *Dispatcher
	accounts   Accounts
}

// NewActions wires the outbound action surface to a dispatcher.
func NewActions(dispatcher *Dispatcher, accounts Accounts) *Actions {
	return &Actions{dispatcher: dispatcher, accounts: accounts}
}

func (a *Actions) enqueue(account, name string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s::%s: %w", account, name, err)
	}
	a.dispatcher.Enqueue(Action{
		Account: account,
		Name:    name,
		Actor:   a.accounts.Self,
		Data:    raw,
	})
	return nil
}

// ForwardTransfer queues a native-token transfer of quantity to the fee sink.
func (a *Actions) ForwardTransfer(_ context.Context, quantity asset.Asset, memo string) error {
	return a.enqueue(a.accounts.NativeToken, "transfer", map[string]string{
		"from":     a.accounts.Self,
		"to":       a.accounts.FeeSink,
		"quantity": quantity.String(),
		"memo":     memo,
	})
}

// ForwardSwap queues a secondary-token conversion moving quantity to the fee
// sink.
func (a *Actions) ForwardSwap(_ context.Context, quantity asset.Asset, memo string) error {
	return a.enqueue(a.accounts.SecondaryToken, "swapto", map[string]string{
		"from":     a.accounts.Self,
		"to":       a.accounts.FeeSink,
		"quantity": quantity.String(),
		"memo":     memo,
	})
}

// ReturnRAM queues a RAM transfer releasing bytes back to account.
func (a *Actions) ReturnRAM(_ context.Context, account string, bytes int64) error {
	return a.enqueue(a.accounts.System, "ramtransfer", map[string]interface{}{
		"from":  a.accounts.Self,
		"to":    account,
		"bytes": bytes,
		"memo":  ramReturnMemo,
	})
}
