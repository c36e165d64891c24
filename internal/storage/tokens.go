package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// RecordIssued appends one unit to the collection supply under tokenID.
// It refuses once the collection is minted out.
func (t *Tx) RecordIssued(ctx context.Context, collection, owner controls.Address, phase uint32, tokenID string, at time.Time) (*IssuedToken, error) {
	d, err := loadDeployment(ctx, t.tx, collection)
	if err != nil {
		return nil, err
	}
	if d.MintedOut() {
		return nil, fmt.Errorf("%w: %d of %d", controls.ErrMintedOut, d.Supply, d.MaxSupply)
	}
	if d.Supply == ^uint64(0) {
		return nil, controls.ErrArithmeticOverflow
	}
	number := d.Supply + 1

	res, err := t.tx.ExecContext(ctx,
		"UPDATE collections SET supply = ? WHERE collection = ? AND supply = ?",
		i64(number), collection.String(), i64(d.Supply),
	)
	if err != nil {
		return nil, err
	}
	if err := expectOne(res); err != nil {
		return nil, fmt.Errorf("supply changed concurrently: %w", err)
	}

	tok := &IssuedToken{
		TokenID:    tokenID,
		Collection: collection,
		Owner:      owner,
		Number:     number,
		Phase:      phase,
		IssuedAt:   at.UTC(),
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO issued_tokens (token_id, collection, owner, number, phase, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tok.TokenID, collection.String(), owner.String(), i64(number), phase, tok.IssuedAt.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// TokensOf lists what owner was issued from collection, in issue order
func (s *Storage) TokensOf(ctx context.Context, collection, owner controls.Address) ([]IssuedToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token_id, number, phase, issued_at FROM issued_tokens
		 WHERE collection = ? AND owner = ? ORDER BY number`,
		collection.String(), owner.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IssuedToken
	for rows.Next() {
		tok := IssuedToken{Collection: collection, Owner: owner}
		var number, issuedAt int64
		var phase uint32
		if err := rows.Scan(&tok.TokenID, &number, &phase, &issuedAt); err != nil {
			return nil, err
		}
		tok.Number = u64(number)
		tok.Phase = phase
		tok.IssuedAt = time.Unix(issuedAt, 0).UTC()
		out = append(out, tok)
	}
	return out, rows.Err()
}
