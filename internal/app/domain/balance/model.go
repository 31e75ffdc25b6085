// Package balance defines the per-account burned balance record.
package balance

import "github.com/bfp-network/burnledger/internal/app/domain/asset"

// Balance is an account's unspent burn-eligible quantity. A balance of zero
// is never stored; the record is deleted instead, which is what triggers the
// resource-credit return.
type Balance struct {
	Account  string      `json:"account"`
	Quantity asset.Asset `json:"quantity"`
}
