package storage

import (
	"context"
	"database/sql"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// MinterStats loads the counter of wallet in collection, or in one phase of it
// when phase is set. A wallet that never minted gets a zero counter; nothing is
// written until SaveMinterStats.
func (t *Tx) MinterStats(ctx context.Context, collection, wallet controls.Address, phase *uint32) (*controls.MinterStats, error) {
	key := statsKey(collection, wallet, phase)
	stats := &controls.MinterStats{Key: key, Wallet: wallet}

	var count int64
	err := t.tx.QueryRowContext(ctx, "SELECT mint_count FROM minter_stats WHERE key = ?", key).Scan(&count)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}
	stats.MintCount = u64(count)
	return stats, nil
}

// SaveMinterStats upserts a counter loaded with MinterStats
func (t *Tx) SaveMinterStats(ctx context.Context, collection controls.Address, phase *uint32, s *controls.MinterStats) error {
	var ph sql.NullInt64
	if phase != nil {
		ph = sql.NullInt64{Int64: int64(*phase), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO minter_stats (key, collection, wallet, phase, mint_count) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET mint_count = excluded.mint_count`,
		s.Key, collection.String(), s.Wallet.String(), ph, i64(s.MintCount),
	)
	return err
}

// WalletStats returns the collection-wide and per-phase counters of wallet
// together with the tokens it owns in collection.
func (s *Storage) WalletStats(ctx context.Context, collection, wallet controls.Address) (*WalletStats, error) {
	out := &WalletStats{
		Collection: collection,
		Wallet:     wallet,
		PerPhase:   make(map[uint32]uint64),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT phase, mint_count FROM minter_stats WHERE collection = ? AND wallet = ?",
		collection.String(), wallet.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			phase sql.NullInt64
			count int64
		)
		if err := rows.Scan(&phase, &count); err != nil {
			return nil, err
		}
		if phase.Valid {
			out.PerPhase[uint32(phase.Int64)] = u64(count)
		} else {
			out.Total = u64(count)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out.Tokens, err = s.TokensOf(ctx, collection, wallet)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func statsKey(collection, wallet controls.Address, phase *uint32) string {
	if phase == nil {
		return controls.GlobalStatsKey(collection, wallet)
	}
	return controls.PhaseStatsKey(collection, wallet, *phase)
}
