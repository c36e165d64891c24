package minter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/issuer"
	"github.com/suspectuso/ton-mintgate/internal/journal"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

func addr(b byte) controls.Address {
	return controls.MustParseAddress("0:" + strings.Repeat(fmt.Sprintf("%02x", b), 32))
}

var (
	testNow    = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collection = addr(0x01)
	creator    = addr(0x02)
	treasury   = addr(0x03)
	feeWallet  = addr(0x04)
	feeWallet2 = addr(0x05)
	admin      = addr(0x0a)
	alice      = addr(0x20)
	bob        = addr(0x21)
)

type recordingNotifier struct {
	mu      sync.Mutex
	mints   []string
	soldOut []uint32
}

func (n *recordingNotifier) NotifyMint(_ context.Context, r *controls.Receipt) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mints = append(n.mints, r.ID)
}

func (n *recordingNotifier) NotifyPhaseSoldOut(_ context.Context, _ controls.Address, index uint32, _ controls.Phase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.soldOut = append(n.soldOut, index)
}

type fixture struct {
	svc      *Service
	store    *storage.Storage
	journal  *journal.Journal
	notifier *recordingNotifier
}

func newFixture(t *testing.T, maxSupply uint64, fee controls.FeeConfig, mutate func(in *controls.InitInput)) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.New(filepath.Join(dir, "mintgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	j, err := journal.Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	n := &recordingNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(store, issuer.NewLocal(), j, n, Options{PrimaryAdmin: admin}, log)
	svc.now = func() time.Time { return testNow }

	in := controls.InitInput{
		Collection: collection,
		Name:       "Gate",
		Symbol:     "GT",
		MaxSupply:  maxSupply,
		Treasury:   treasury,
		Fee:        fee,
	}
	if mutate != nil {
		mutate(&in)
	}
	_, _, err = svc.CreateCollection(context.Background(), creator, in)
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, journal: j, notifier: n}
}

func flatFee(value uint64) controls.FeeConfig {
	return controls.FeeConfig{Value: value, IsFlat: true, Recipients: []controls.Recipient{{Address: feeWallet, Share: 100}}}
}

func publicPhase(price uint64) controls.Phase {
	return controls.Phase{
		PriceAmount: price,
		StartTime:   testNow.Add(-time.Hour),
		Active:      true,
	}
}

func (f *fixture) addPhase(t *testing.T, p controls.Phase) uint32 {
	t.Helper()
	idx, err := f.svc.AppendPhase(context.Background(), creator, collection, p)
	require.NoError(t, err)
	return idx
}

func (f *fixture) fund(t *testing.T, account controls.Address, amount uint64) {
	t.Helper()
	_, err := f.svc.Credit(context.Background(), admin, account, "TON", amount)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, account controls.Address) uint64 {
	t.Helper()
	balances, err := f.store.Balances(context.Background(), account)
	require.NoError(t, err)
	for _, b := range balances {
		if b.Token == "TON" {
			return b.Amount
		}
	}
	return 0
}

func (f *fixture) phase(t *testing.T, idx uint32) controls.Phase {
	t.Helper()
	c, err := f.store.Controls(context.Background(), collection)
	require.NoError(t, err)
	return c.Phases[idx]
}

func TestMint_PublicHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(100), nil)
	idx := f.addPhase(t, publicPhase(1000))
	f.fund(t, alice, 1000)

	r, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
	require.NoError(t, err)

	assert.Equal(t, uint64(100), r.Split.TotalFee)
	assert.Equal(t, uint64(900), r.Split.Remaining)
	assert.Equal(t, uint64(100), f.balance(t, feeWallet))
	assert.Equal(t, uint64(900), f.balance(t, treasury))
	assert.Zero(t, f.balance(t, alice))
	assert.Equal(t, uint64(1), f.phase(t, idx).CurrentMints)
	assert.Equal(t, uint64(1), r.TokenNumber)
	assert.Equal(t, "TON", r.PriceToken)

	stats, err := f.store.WalletStats(ctx, collection, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Total)
	assert.Equal(t, uint64(1), stats.PerPhase[idx])
	require.Len(t, stats.Tokens, 1)
	assert.Equal(t, r.TokenID, stats.Tokens[0].TokenID)

	got, err := f.journal.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Split, got.Split)
	assert.Equal(t, []string{r.ID}, f.notifier.mints)
}

func TestMint_ProportionalSlackStaysWithPayer(t *testing.T) {
	fee := controls.FeeConfig{Value: 2500, Recipients: []controls.Recipient{
		{Address: feeWallet, Share: 50},
		{Address: feeWallet2, Share: 50},
	}}
	f := newFixture(t, 0, fee, nil)
	idx := f.addPhase(t, publicPhase(999))
	f.fund(t, bob, 999)

	r, err := f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice, Payer: bob})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), r.Split.Slack)
	assert.Equal(t, uint64(124), f.balance(t, feeWallet))
	assert.Equal(t, uint64(124), f.balance(t, feeWallet2))
	assert.Equal(t, uint64(750), f.balance(t, treasury))
	assert.Equal(t, uint64(1), f.balance(t, bob))
	assert.Equal(t, bob, r.Payer)
	assert.Equal(t, alice, r.Minter)
}

func TestMint_SoldOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(0), nil)
	p := publicPhase(0)
	p.MaxMintsTotal = 1
	idx := f.addPhase(t, p)

	_, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
	require.NoError(t, err)
	assert.Equal(t, []uint32{idx}, f.notifier.soldOut)

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: bob})
	assert.ErrorIs(t, err, controls.ErrPhaseSoldOut)
	assert.Equal(t, uint64(1), f.phase(t, idx).CurrentMints)

	stats, err := f.store.WalletStats(ctx, collection, bob)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestMint_CollectionWalletCapAcrossPhases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(0), func(in *controls.InitInput) { in.MaxMintsPerWallet = 2 })
	first := f.addPhase(t, publicPhase(0))
	second := f.addPhase(t, publicPhase(0))

	_, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: first, Minter: alice})
	require.NoError(t, err)
	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: second, Minter: alice})
	require.NoError(t, err)

	for _, idx := range []uint32{first, second} {
		_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
		assert.ErrorIs(t, err, controls.ErrWalletCapCollection)
	}

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: first, Minter: bob})
	assert.NoError(t, err)
}

func TestMint_NoPhases(t *testing.T) {
	f := newFixture(t, 0, flatFee(0), nil)

	_, err := f.svc.Mint(context.Background(), Request{Collection: collection, Minter: alice})
	assert.ErrorIs(t, err, controls.ErrNoPhasesAdded)

	f.addPhase(t, publicPhase(0))
	_, err = f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: 4, Minter: alice})
	assert.ErrorIs(t, err, controls.ErrInvalidPhaseIndex)
}

func TestMint_PrivatePhase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(10), nil)

	entries := []controls.AllowlistEntry{
		{Wallet: alice, Price: 50, MaxClaims: 1},
		{Wallet: bob, Price: 80, MaxClaims: 0},
		{Wallet: addr(0x22), Price: 10, MaxClaims: 3},
	}
	tree, err := controls.BuildTree(entries)
	require.NoError(t, err)
	root := tree.Root()

	p := publicPhase(1000)
	p.IsPrivate = true
	p.MerkleRoot = &root
	idx := f.addPhase(t, p)
	f.fund(t, alice, 500)

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	price, claims := uint64(50), uint64(1)
	claim := controls.AllowlistClaim{Proof: proof, Price: &price, MaxClaims: &claims}

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
	assert.ErrorIs(t, err, controls.ErrMissingAllowlistParams)

	wrong := uint64(1000)
	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice, Claim: claim, Price: &wrong})
	assert.ErrorIs(t, err, controls.ErrPriceMismatch)

	r, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice, Claim: claim, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, uint64(50), r.Split.Price)
	assert.Equal(t, uint64(450), f.balance(t, alice))

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice, Claim: claim})
	assert.ErrorIs(t, err, controls.ErrAllowlistCap)

	// bob cannot reuse alice's proof
	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: bob, Claim: claim})
	assert.ErrorIs(t, err, controls.ErrInvalidProof)
}

func TestMint_InsufficientFundsRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(100), nil)
	idx := f.addPhase(t, publicPhase(1000))
	f.fund(t, alice, 950)

	_, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
	assert.ErrorIs(t, err, controls.ErrInsufficientFunds)

	assert.Zero(t, f.phase(t, idx).CurrentMints)
	assert.Equal(t, uint64(950), f.balance(t, alice))
	assert.Zero(t, f.balance(t, feeWallet))

	stats, err := f.store.WalletStats(ctx, collection, alice)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.PerPhase)

	receipts, err := f.journal.List(collection, 0)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Empty(t, f.notifier.mints)
}

func TestMint_Cosigner(t *testing.T) {
	cosigner := addr(0x30)
	f := newFixture(t, 0, flatFee(0), func(in *controls.InitInput) { in.Cosigner = cosigner })
	// the co-signer check runs before phase resolution
	_, err := f.svc.Mint(context.Background(), Request{Collection: collection, Minter: alice})
	assert.ErrorIs(t, err, controls.ErrCosignerRequired)

	idx := f.addPhase(t, publicPhase(0))
	_, err = f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice, Signer: alice})
	assert.ErrorIs(t, err, controls.ErrCosignerRequired)

	_, err = f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice, Signer: cosigner})
	assert.NoError(t, err)
}

func TestMint_RecipientRouting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(100), nil)
	idx := f.addPhase(t, publicPhase(1000))
	f.fund(t, alice, 2000)

	_, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice, Recipients: []controls.Address{bob}})
	assert.ErrorIs(t, err, controls.ErrRecipientMismatch)
	assert.Equal(t, uint64(2000), f.balance(t, alice))

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice, Recipients: []controls.Address{feeWallet}})
	assert.NoError(t, err)
}

func TestMint_MintedOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, flatFee(0), nil)
	idx := f.addPhase(t, publicPhase(0))

	_, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
	require.NoError(t, err)

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: bob})
	assert.ErrorIs(t, err, controls.ErrMintedOut)
	assert.Equal(t, uint64(1), f.phase(t, idx).CurrentMints)
}

func TestMint_ConcurrentAttemptsRespectPhaseCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(0), nil)
	p := publicPhase(0)
	p.MaxMintsTotal = 5
	idx := f.addPhase(t, p)

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		soldOut int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: addr(byte(0x40 + i))})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case controls.CodeOf(err) == controls.ErrPhaseSoldOut.Code:
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	assert.Equal(t, attempts-5, soldOut)
	assert.Equal(t, uint64(5), f.phase(t, idx).CurrentMints)
}

func TestAdminPermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, flatFee(0), nil)

	_, err := f.svc.AppendPhase(ctx, alice, collection, publicPhase(0))
	assert.ErrorIs(t, err, controls.ErrNotPermitted)

	idx := f.addPhase(t, publicPhase(0))
	assert.ErrorIs(t, f.svc.SetPhaseActive(ctx, admin, collection, idx, false), controls.ErrNotPermitted)
	require.NoError(t, f.svc.SetPhaseActive(ctx, creator, collection, idx, false))

	_, err = f.svc.Mint(ctx, Request{Collection: collection, PhaseIndex: idx, Minter: alice})
	assert.ErrorIs(t, err, controls.ErrPhaseInactive)

	assert.ErrorIs(t, f.svc.UpdateFee(ctx, creator, collection, flatFee(5)), controls.ErrNotPermitted)
	require.NoError(t, f.svc.UpdateFee(ctx, admin, collection, flatFee(5)))
	_, c, err := f.svc.Collection(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), c.Fee.Value)

	_, err = f.svc.Credit(ctx, creator, alice, "TON", 10)
	assert.ErrorIs(t, err, controls.ErrNotPermitted)

	_, _, err = f.svc.CreateCollection(ctx, creator, controls.InitInput{Collection: collection, Symbol: "GT", Treasury: treasury, Fee: flatFee(0)})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestMint_SubSecondPhaseWindow(t *testing.T) {
	t.Run("not started until the exact start", func(t *testing.T) {
		f := newFixture(t, 0, flatFee(0), nil)
		p := publicPhase(0)
		p.StartTime = testNow.Add(500 * time.Millisecond)
		idx := f.addPhase(t, p)

		_, err := f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice})
		assert.ErrorIs(t, err, controls.ErrPhaseNotStarted)

		f.svc.now = func() time.Time { return testNow.Add(500 * time.Millisecond) }
		_, err = f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice})
		assert.NoError(t, err)
	})

	t.Run("open until the exact end", func(t *testing.T) {
		f := newFixture(t, 0, flatFee(0), nil)
		p := publicPhase(0)
		p.EndTime = testNow.Add(500 * time.Millisecond)
		idx := f.addPhase(t, p)

		_, err := f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice})
		assert.NoError(t, err)

		f.svc.now = func() time.Time { return testNow.Add(500 * time.Millisecond) }
		_, err = f.svc.Mint(context.Background(), Request{Collection: collection, PhaseIndex: idx, Minter: alice})
		assert.ErrorIs(t, err, controls.ErrPhaseEnded)
	})
}
