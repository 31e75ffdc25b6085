package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/balance"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.ProposalStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.BalanceStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- ProposalStore ----------------------------------------------------------

func (s *Store) CreateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO bfp_proposals
			(proposer, title, summary, markdown, requested_amount, requested_symbol,
			 msig, burns_amount, burns_symbol, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, p.Proposer, p.Title, p.Summary, p.Markdown,
		p.Requested.Amount, p.Requested.Symbol.String(),
		p.Msig, p.Burns.Amount, p.Burns.Symbol.String(), p.CreatedAt)

	if err := row.Scan(&p.ID); err != nil {
		return proposal.Proposal{}, err
	}
	return p, nil
}

func (s *Store) GetProposal(ctx context.Context, id uint64) (proposal.Proposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, proposer, title, summary, markdown, requested_amount,
		       requested_symbol, msig, burns_amount, burns_symbol, created_at
		FROM bfp_proposals
		WHERE id = $1
	`, int64(id))

	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return proposal.Proposal{}, storage.ErrNotFound
	}
	return p, err
}

func (s *Store) UpdateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bfp_proposals
		SET proposer = $2, title = $3, summary = $4, markdown = $5,
		    requested_amount = $6, requested_symbol = $7, msig = $8,
		    burns_amount = $9, burns_symbol = $10
		WHERE id = $1
	`, int64(p.ID), p.Proposer, p.Title, p.Summary, p.Markdown,
		p.Requested.Amount, p.Requested.Symbol.String(), p.Msig,
		p.Burns.Amount, p.Burns.Symbol.String())
	if err != nil {
		return proposal.Proposal{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return proposal.Proposal{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) DeleteProposal(ctx context.Context, id uint64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM bfp_proposals WHERE id = $1
	`, int64(id))
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListProposals(ctx context.Context, order proposal.SortMode) ([]proposal.Proposal, error) {
	var orderBy string
	switch proposal.NormalizeSort(order) {
	case proposal.SortByBurns:
		orderBy = "burns_amount, id"
	case proposal.SortByTimestamp:
		orderBy = "created_at, id"
	default:
		orderBy = "requested_amount, id"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, proposer, title, summary, markdown, requested_amount,
		       requested_symbol, msig, burns_amount, burns_symbol, created_at
		FROM bfp_proposals
		ORDER BY `+orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []proposal.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// --- CommentStore -----------------------------------------------------------

func (s *Store) AppendComment(ctx context.Context, c proposal.Comment) (proposal.Comment, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return proposal.Comment{}, err
	}
	defer tx.Rollback()

	// The partition's id counter lives on the proposal row so it survives
	// comment deletion.
	row := tx.QueryRowContext(ctx, `
		UPDATE bfp_proposals
		SET next_comment_id = next_comment_id + 1
		WHERE id = $1
		RETURNING next_comment_id - 1
	`, int64(c.ProposalID))

	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return proposal.Comment{}, storage.ErrNotFound
		}
		return proposal.Comment{}, err
	}
	c.ID = uint64(id)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bfp_comments
			(proposal_id, id, burned_amount, burned_symbol, sender, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, int64(c.ProposalID), id, c.Burned.Amount, c.Burned.Symbol.String(),
		c.Sender, c.Message, c.CreatedAt)
	if err != nil {
		return proposal.Comment{}, err
	}

	if err := tx.Commit(); err != nil {
		return proposal.Comment{}, err
	}
	return c, nil
}

func (s *Store) ListComments(ctx context.Context, proposalID uint64) ([]proposal.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT proposal_id, id, burned_amount, burned_symbol, sender, message, created_at
		FROM bfp_comments
		WHERE proposal_id = $1
		ORDER BY created_at DESC, id
	`, int64(proposalID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []proposal.Comment
	for rows.Next() {
		var (
			c         proposal.Comment
			pid, id   int64
			amount    int64
			symbolRaw string
		)
		if err := rows.Scan(&pid, &id, &amount, &symbolRaw, &c.Sender, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		sym, err := asset.ParseSymbol(symbolRaw)
		if err != nil {
			return nil, err
		}
		c.ProposalID = uint64(pid)
		c.ID = uint64(id)
		c.Burned = asset.New(amount, sym)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) DeleteComments(ctx context.Context, proposalID uint64, limit int) (int, error) {
	var (
		result sql.Result
		err    error
	)
	if limit <= 0 {
		result, err = s.db.ExecContext(ctx, `
			DELETE FROM bfp_comments WHERE proposal_id = $1
		`, int64(proposalID))
	} else {
		result, err = s.db.ExecContext(ctx, `
			DELETE FROM bfp_comments
			WHERE proposal_id = $1 AND id IN (
				SELECT id FROM bfp_comments
				WHERE proposal_id = $1
				ORDER BY id
				LIMIT $2
			)
		`, int64(proposalID), limit)
	}
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}

func (s *Store) EnqueueSweep(ctx context.Context, proposalID uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bfp_sweep_queue (proposal_id) VALUES ($1)
		ON CONFLICT (proposal_id) DO NOTHING
	`, int64(proposalID))
	return err
}

func (s *Store) PendingSweeps(ctx context.Context) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT proposal_id FROM bfp_sweep_queue ORDER BY proposal_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, uint64(id))
	}
	return result, rows.Err()
}

func (s *Store) DequeueSweep(ctx context.Context, proposalID uint64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM bfp_sweep_queue WHERE proposal_id = $1
	`, int64(proposalID))
	return err
}

// --- BalanceStore -----------------------------------------------------------

func (s *Store) GetBalance(ctx context.Context, account string) (balance.Balance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT account, amount, symbol FROM bfp_balances WHERE account = $1
	`, account)

	var (
		b         balance.Balance
		amount    int64
		symbolRaw string
	)
	if err := row.Scan(&b.Account, &amount, &symbolRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return balance.Balance{}, storage.ErrNotFound
		}
		return balance.Balance{}, err
	}
	sym, err := asset.ParseSymbol(symbolRaw)
	if err != nil {
		return balance.Balance{}, err
	}
	b.Quantity = asset.New(amount, sym)
	return b, nil
}

func (s *Store) PutBalance(ctx context.Context, b balance.Balance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bfp_balances (account, amount, symbol)
		VALUES ($1, $2, $3)
		ON CONFLICT (account) DO UPDATE SET amount = $2, symbol = $3
	`, b.Account, b.Quantity.Amount, b.Quantity.Symbol.String())
	return err
}

func (s *Store) DeleteBalance(ctx context.Context, account string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM bfp_balances WHERE account = $1
	`, account)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- helpers ----------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProposal(row rowScanner) (proposal.Proposal, error) {
	var (
		p                            proposal.Proposal
		id                           int64
		requestedAmount, burnsAmount int64
		requestedSym, burnsSym       string
	)
	err := row.Scan(&id, &p.Proposer, &p.Title, &p.Summary, &p.Markdown,
		&requestedAmount, &requestedSym, &p.Msig, &burnsAmount, &burnsSym, &p.CreatedAt)
	if err != nil {
		return proposal.Proposal{}, err
	}

	rs, err := asset.ParseSymbol(requestedSym)
	if err != nil {
		return proposal.Proposal{}, err
	}
	bs, err := asset.ParseSymbol(burnsSym)
	if err != nil {
		return proposal.Proposal{}, err
	}

	p.ID = uint64(id)
	p.Requested = asset.New(requestedAmount, rs)
	p.Burns = asset.New(burnsAmount, bs)
	return p, nil
}
