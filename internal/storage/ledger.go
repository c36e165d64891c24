package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math/bits"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// Balance returns what account holds of token
func (t *Tx) Balance(ctx context.Context, account controls.Address, token string) (uint64, error) {
	return balance(ctx, t.tx, account, token)
}

// Credit adds amount to account and returns the new balance
func (t *Tx) Credit(ctx context.Context, account controls.Address, token string, amount uint64) (uint64, error) {
	current, err := balance(ctx, t.tx, account, token)
	if err != nil {
		return 0, err
	}
	next, carry := bits.Add64(current, amount, 0)
	if carry != 0 {
		return 0, controls.ErrArithmeticOverflow
	}
	if err := t.setBalance(ctx, account, token, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Transfer moves amount of token from one account to another. A zero amount is a no-op.
func (t *Tx) Transfer(ctx context.Context, from, to controls.Address, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	have, err := balance(ctx, t.tx, from, token)
	if err != nil {
		return err
	}
	if have < amount {
		return fmt.Errorf("%w: %s holds %d %s, needs %d", controls.ErrInsufficientFunds, from.Friendly(), have, token, amount)
	}
	if err := t.setBalance(ctx, from, token, have-amount); err != nil {
		return err
	}
	_, err = t.Credit(ctx, to, token, amount)
	return err
}

func (t *Tx) setBalance(ctx context.Context, account controls.Address, token string, amount uint64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO balances (account, token, amount) VALUES (?, ?, ?)
		 ON CONFLICT(account, token) DO UPDATE SET amount = excluded.amount`,
		account.String(), token, i64(amount),
	)
	return err
}

// Credit funds account outside of a mint
func (s *Storage) Credit(ctx context.Context, account controls.Address, token string, amount uint64) (uint64, error) {
	var next uint64
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		next, err = tx.Credit(ctx, account, token, amount)
		return err
	})
	return next, err
}

// Balances returns every non-empty token balance of account
func (s *Storage) Balances(ctx context.Context, account controls.Address) ([]Balance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token, amount FROM balances WHERE account = ? AND amount != 0 ORDER BY token",
		account.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		b := Balance{Account: account}
		var amount int64
		if err := rows.Scan(&b.Token, &amount); err != nil {
			return nil, err
		}
		b.Amount = u64(amount)
		out = append(out, b)
	}
	return out, rows.Err()
}

func balance(ctx context.Context, q querier, account controls.Address, token string) (uint64, error) {
	var amount int64
	err := q.QueryRowContext(ctx,
		"SELECT amount FROM balances WHERE account = ? AND token = ?",
		account.String(), token,
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return u64(amount), nil
}
