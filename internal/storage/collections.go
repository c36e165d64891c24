package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCollection stores a new deployment with its controls and no phases
func (t *Tx) CreateCollection(ctx context.Context, d *controls.Deployment, c *controls.Controls) error {
	var exists int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE collection = ?", d.Collection.String(),
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrAlreadyExists
	}

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO collections (collection, creator, name, symbol, max_supply, supply, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Collection.String(), d.Creator.String(), d.Name, d.Symbol, i64(d.MaxSupply), i64(d.Supply), d.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}

	recipients, err := json.Marshal(c.Fee.Recipients)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO mint_controls (collection, treasury, max_mints_per_wallet, cosigner,
		 primary_admin, secondary_admin, fee_value, fee_is_flat, fee_recipients)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Collection.String(), c.Treasury.String(), i64(c.MaxMintsPerWallet), c.Cosigner.String(),
		c.PrimaryAdmin.String(), c.SecondaryAdmin.String(), i64(c.Fee.Value), boolInt(c.Fee.IsFlat), string(recipients),
	)
	return err
}

// Deployment returns the collection record
func (t *Tx) Deployment(ctx context.Context, collection controls.Address) (*controls.Deployment, error) {
	return loadDeployment(ctx, t.tx, collection)
}

// Deployment returns the collection record outside of any mint
func (s *Storage) Deployment(ctx context.Context, collection controls.Address) (*controls.Deployment, error) {
	return loadDeployment(ctx, s.db, collection)
}

// Controls returns the mint controls of collection with all phases in index order
func (t *Tx) Controls(ctx context.Context, collection controls.Address) (*controls.Controls, error) {
	return loadControls(ctx, t.tx, collection)
}

func (s *Storage) Controls(ctx context.Context, collection controls.Address) (*controls.Controls, error) {
	return loadControls(ctx, s.db, collection)
}

// ListCollections returns every deployment, newest first
func (s *Storage) ListCollections(ctx context.Context) ([]controls.Deployment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT collection, creator, name, symbol, max_supply, supply, created_at
		 FROM collections ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []controls.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// SaveFee replaces the stored platform fee of collection
func (t *Tx) SaveFee(ctx context.Context, collection controls.Address, fee controls.FeeConfig) error {
	recipients, err := json.Marshal(fee.Recipients)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE mint_controls SET fee_value = ?, fee_is_flat = ?, fee_recipients = ? WHERE collection = ?`,
		i64(fee.Value), boolInt(fee.IsFlat), string(recipients), collection.String(),
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// InsertPhase stores a freshly appended phase at index
func (t *Tx) InsertPhase(ctx context.Context, collection controls.Address, index uint32, p *controls.Phase) error {
	var root sql.NullString
	if p.MerkleRoot != nil {
		root = sql.NullString{String: p.MerkleRoot.String(), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO phases (collection, idx, price_amount, price_token, start_time, end_time, active,
		 max_mints_per_wallet, max_mints_total, current_mints, is_private, merkle_root)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		collection.String(), index, i64(p.PriceAmount), p.PriceToken, unixNano(p.StartTime), unixNano(p.EndTime), boolInt(p.Active),
		i64(p.MaxMintsPerWallet), i64(p.MaxMintsTotal), i64(p.CurrentMints), boolInt(p.IsPrivate), root,
	)
	return err
}

// SavePhaseState persists the mutable part of a phase: its switch and mint counter
func (t *Tx) SavePhaseState(ctx context.Context, collection controls.Address, index uint32, p *controls.Phase) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE phases SET active = ?, current_mints = ? WHERE collection = ? AND idx = ?`,
		boolInt(p.Active), i64(p.CurrentMints), collection.String(), index,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row rowScanner) (*controls.Deployment, error) {
	var (
		collection, creator string
		d                   controls.Deployment
		maxSupply, supply   int64
		createdAt           int64
	)
	if err := row.Scan(&collection, &creator, &d.Name, &d.Symbol, &maxSupply, &supply, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if d.Collection, err = controls.ParseAddress(collection); err != nil {
		return nil, err
	}
	if d.Creator, err = controls.ParseAddress(creator); err != nil {
		return nil, err
	}
	d.MaxSupply = u64(maxSupply)
	d.Supply = u64(supply)
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &d, nil
}

func loadDeployment(ctx context.Context, q querier, collection controls.Address) (*controls.Deployment, error) {
	row := q.QueryRowContext(ctx,
		`SELECT collection, creator, name, symbol, max_supply, supply, created_at
		 FROM collections WHERE collection = ?`,
		collection.String(),
	)
	d, err := scanDeployment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

func loadControls(ctx context.Context, q querier, collection controls.Address) (*controls.Controls, error) {
	var (
		creator, treasury, cosigner, primary, secondary, recipients string
		maxPerWallet, feeValue                                      int64
		feeFlat                                                     int
	)
	err := q.QueryRowContext(ctx,
		`SELECT c.creator, m.treasury, m.max_mints_per_wallet, m.cosigner, m.primary_admin,
		 m.secondary_admin, m.fee_value, m.fee_is_flat, m.fee_recipients
		 FROM mint_controls m JOIN collections c ON c.collection = m.collection
		 WHERE m.collection = ?`,
		collection.String(),
	).Scan(&creator, &treasury, &maxPerWallet, &cosigner, &primary, &secondary, &feeValue, &feeFlat, &recipients)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c := &controls.Controls{
		Collection:        collection,
		MaxMintsPerWallet: u64(maxPerWallet),
		Fee: controls.FeeConfig{
			Value:  u64(feeValue),
			IsFlat: feeFlat != 0,
		},
	}
	for _, f := range []struct {
		dst *controls.Address
		raw string
	}{
		{&c.Creator, creator},
		{&c.Treasury, treasury},
		{&c.Cosigner, cosigner},
		{&c.PrimaryAdmin, primary},
		{&c.SecondaryAdmin, secondary},
	} {
		if *f.dst, err = controls.ParseAddress(f.raw); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal([]byte(recipients), &c.Fee.Recipients); err != nil {
		return nil, fmt.Errorf("decode fee recipients: %w", err)
	}

	c.Phases, err = loadPhases(ctx, q, collection)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func loadPhases(ctx context.Context, q querier, collection controls.Address) ([]controls.Phase, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT idx, price_amount, price_token, start_time, end_time, active, max_mints_per_wallet,
		 max_mints_total, current_mints, is_private, merkle_root
		 FROM phases WHERE collection = ? ORDER BY idx`,
		collection.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []controls.Phase
	for rows.Next() {
		var (
			p                                controls.Phase
			idx                              int64
			price, perWallet, total, current int64
			start, end                       int64
			active, private                  int
			root                             sql.NullString
		)
		err := rows.Scan(&idx, &price, &p.PriceToken, &start, &end, &active, &perWallet, &total, &current, &private, &root)
		if err != nil {
			return nil, err
		}
		if idx != int64(len(phases)) {
			return nil, fmt.Errorf("phase index gap at %d", idx)
		}

		p.PriceAmount = u64(price)
		p.MaxMintsPerWallet = u64(perWallet)
		p.MaxMintsTotal = u64(total)
		p.CurrentMints = u64(current)
		p.StartTime = fromUnixNano(start)
		p.EndTime = fromUnixNano(end)
		p.Active = active != 0
		p.IsPrivate = private != 0
		if root.Valid {
			h, err := controls.ParseHash(root.String)
			if err != nil {
				return nil, err
			}
			p.MerkleRoot = &h
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
