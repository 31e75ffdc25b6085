// Package proposal defines the funding proposal records and their comment
// feed entries.
package proposal

import (
	"time"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
)

const (
	// TitleMaxLen bounds the proposal title length.
	TitleMaxLen = 256
	// SummaryMaxLen bounds the proposal summary length.
	SummaryMaxLen = 1024
)

// Proposal is a funding request. Burns accumulates the total quantity burned
// in its favor and never decreases while the proposal exists.
type Proposal struct {
	ID        uint64      `json:"id"`
	Proposer  string      `json:"proposer"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary"`
	Markdown  string      `json:"markdown"`
	Requested asset.Asset `json:"requested"`
	Msig      string      `json:"msig"`
	Burns     asset.Asset `json:"burns"`
	CreatedAt time.Time   `json:"timestamp"`
}

// Comment is a burn event in a proposal's activity feed. Comments are
// partitioned by proposal id; ids are unique within the partition only.
type Comment struct {
	ID         uint64      `json:"id"`
	ProposalID uint64      `json:"proposal_id"`
	Burned     asset.Asset `json:"burned"`
	Sender     string      `json:"sender"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"timestamp"`
}

// Limited is the listing projection of a proposal, annotated with the
// approval count of its linked multisig proposal. The markdown body is
// omitted.
type Limited struct {
	ID        uint64      `json:"id"`
	Proposer  string      `json:"proposer"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary"`
	Requested asset.Asset `json:"requested"`
	Burns     asset.Asset `json:"burns"`
	CreatedAt time.Time   `json:"timestamp"`
	Approvals int         `json:"approvals"`
	Msig      string      `json:"msig"`
}

// SortMode selects a proposal listing order.
type SortMode uint8

const (
	// SortByRequested orders by requested amount.
	SortByRequested SortMode = iota
	// SortByBurns orders by accumulated burn total.
	SortByBurns
	// SortByTimestamp orders by creation time.
	SortByTimestamp
)

// NormalizeSort maps out-of-range modes to SortByRequested.
func NormalizeSort(m SortMode) SortMode {
	if m > SortByTimestamp {
		return SortByRequested
	}
	return m
}

// Limit builds the listing projection for p.
func (p Proposal) Limit(approvals int) Limited {
	return Limited{
		ID:        p.ID,
		Proposer:  p.Proposer,
		Title:     p.Title,
		Summary:   p.Summary,
		Requested: p.Requested,
		Burns:     p.Burns,
		CreatedAt: p.CreatedAt,
		Approvals: approvals,
		Msig:      p.Msig,
	}
}
