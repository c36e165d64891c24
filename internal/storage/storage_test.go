package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

func addr(b byte) controls.Address {
	return controls.MustParseAddress("0:" + strings.Repeat(fmt.Sprintf("%02x", b), 32))
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "mintgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCollection(t *testing.T, s *Storage, maxSupply uint64) *controls.Controls {
	t.Helper()
	d, c, err := controls.NewControls(controls.InitInput{
		Collection: addr(0x01),
		Creator:    addr(0x02),
		Name:       "Gate",
		Symbol:     "GT",
		MaxSupply:  maxSupply,
		Treasury:   addr(0x03),
		Cosigner:   addr(0x09),
		Fee: controls.FeeConfig{
			Value:      250,
			Recipients: []controls.Recipient{{Address: addr(0x04), Share: 60}, {Address: addr(0x05), Share: 40}},
		},
	}, addr(0x0a), controls.Address{})
	require.NoError(t, err)

	require.NoError(t, s.WithTx(context.Background(), func(tx *Tx) error {
		return tx.CreateCollection(context.Background(), d, c)
	}))
	return c
}

func TestCollections_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	want := seedCollection(t, s, 10)

	root := controls.Hash{0xab}
	phases := []controls.Phase{
		{PriceAmount: 1000, PriceToken: "TON", StartTime: time.Unix(1700000000, 0).UTC(), Active: true, MaxMintsTotal: 5},
		{PriceAmount: 0, PriceToken: "TON", StartTime: time.Unix(1700000000, 0).UTC(), EndTime: time.Unix(1800000000, 0).UTC(), IsPrivate: true, MerkleRoot: &root},
	}
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		for i := range phases {
			if err := tx.InsertPhase(ctx, want.Collection, uint32(i), &phases[i]); err != nil {
				return err
			}
		}
		return nil
	}))

	got, err := s.Controls(ctx, want.Collection)
	require.NoError(t, err)
	assert.Equal(t, want.Creator, got.Creator)
	assert.Equal(t, want.Treasury, got.Treasury)
	assert.Equal(t, want.Cosigner, got.Cosigner)
	assert.Equal(t, want.PrimaryAdmin, got.PrimaryAdmin)
	assert.True(t, got.SecondaryAdmin.IsZero())
	assert.Equal(t, want.Fee, got.Fee)
	assert.Equal(t, phases, got.Phases)

	d, err := s.Deployment(ctx, want.Collection)
	require.NoError(t, err)
	assert.Equal(t, "GT", d.Symbol)
	assert.Equal(t, uint64(10), d.MaxSupply)

	_, err = s.Controls(ctx, addr(0x77))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollections_Duplicate(t *testing.T) {
	s := newTestStorage(t)
	c := seedCollection(t, s, 0)

	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return tx.CreateCollection(context.Background(), &controls.Deployment{Collection: c.Collection, Creator: c.Creator}, c)
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestSaveFeeAndPhaseState(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	c := seedCollection(t, s, 0)

	fee := controls.FeeConfig{Value: 5, IsFlat: true, Recipients: []controls.Recipient{{Address: addr(0x06), Share: 100}}}
	p := controls.Phase{PriceToken: "TON", Active: true}
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		if err := tx.SaveFee(ctx, c.Collection, fee); err != nil {
			return err
		}
		if err := tx.InsertPhase(ctx, c.Collection, 0, &p); err != nil {
			return err
		}
		p.Active = false
		p.CurrentMints = 7
		return tx.SavePhaseState(ctx, c.Collection, 0, &p)
	}))

	got, err := s.Controls(ctx, c.Collection)
	require.NoError(t, err)
	assert.Equal(t, fee, got.Fee)
	require.Len(t, got.Phases, 1)
	assert.False(t, got.Phases[0].Active)
	assert.Equal(t, uint64(7), got.Phases[0].CurrentMints)

	err = s.WithTx(ctx, func(tx *Tx) error {
		return tx.SavePhaseState(ctx, c.Collection, 3, &p)
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMinterStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	c := seedCollection(t, s, 0)
	wallet := addr(0x20)
	phase := uint32(1)

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		global, err := tx.MinterStats(ctx, c.Collection, wallet, nil)
		require.NoError(t, err)
		assert.Zero(t, global.MintCount)
		assert.Equal(t, controls.GlobalStatsKey(c.Collection, wallet), global.Key)

		perPhase, err := tx.MinterStats(ctx, c.Collection, wallet, &phase)
		require.NoError(t, err)
		assert.Equal(t, controls.PhaseStatsKey(c.Collection, wallet, phase), perPhase.Key)

		require.NoError(t, global.Increment())
		require.NoError(t, global.Increment())
		require.NoError(t, perPhase.Increment())
		if err := tx.SaveMinterStats(ctx, c.Collection, nil, global); err != nil {
			return err
		}
		return tx.SaveMinterStats(ctx, c.Collection, &phase, perPhase)
	}))

	stats, err := s.WalletStats(ctx, c.Collection, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Total)
	assert.Equal(t, map[uint32]uint64{1: 1}, stats.PerPhase)
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	payer, treasury := addr(0x30), addr(0x31)

	bal, err := s.Credit(ctx, payer, "TON", 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal)

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.Transfer(ctx, payer, treasury, "TON", 400)
	}))

	balances, err := s.Balances(ctx, payer)
	require.NoError(t, err)
	assert.Equal(t, []Balance{{Account: payer, Token: "TON", Amount: 600}}, balances)

	// a failing transfer rolls back earlier writes in the same transaction
	err = s.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Transfer(ctx, payer, treasury, "TON", 500); err != nil {
			return err
		}
		return tx.Transfer(ctx, payer, treasury, "TON", 500)
	})
	assert.ErrorIs(t, err, controls.ErrInsufficientFunds)

	balances, err = s.Balances(ctx, treasury)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), balances[0].Amount)

	_, err = s.Credit(ctx, payer, "TON", ^uint64(0))
	assert.ErrorIs(t, err, controls.ErrArithmeticOverflow)
}

func TestRecordIssued_MintedOut(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	c := seedCollection(t, s, 2)
	owner := addr(0x40)

	for i := 1; i <= 2; i++ {
		require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
			tok, err := tx.RecordIssued(ctx, c.Collection, owner, 0, fmt.Sprintf("tok-%d", i), time.Now())
			if err != nil {
				return err
			}
			assert.Equal(t, uint64(i), tok.Number)
			return nil
		}))
	}

	err := s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.RecordIssued(ctx, c.Collection, owner, 0, "tok-3", time.Now())
		return err
	})
	assert.ErrorIs(t, err, controls.ErrMintedOut)

	tokens, err := s.TokensOf(ctx, c.Collection, owner)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	d, err := s.Deployment(ctx, c.Collection)
	require.NoError(t, err)
	assert.True(t, d.MintedOut())
}

func TestWithTx_Rollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.Credit(ctx, addr(0x50), "TON", 10); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	balances, err := s.Balances(ctx, addr(0x50))
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestPhaseWindow_KeepsSubSecondPrecision(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	c := seedCollection(t, s, 0)

	start := time.Date(2025, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	end := start.Add(1500 * time.Millisecond).Add(123 * time.Nanosecond)
	p := controls.Phase{PriceToken: "TON", StartTime: start, EndTime: end, Active: true}
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.InsertPhase(ctx, c.Collection, 0, &p)
	}))

	got, err := s.Controls(ctx, c.Collection)
	require.NoError(t, err)
	require.Len(t, got.Phases, 1)
	assert.True(t, start.Equal(got.Phases[0].StartTime), "start %s", got.Phases[0].StartTime)
	assert.True(t, end.Equal(got.Phases[0].EndTime), "end %s", got.Phases[0].EndTime)
}
