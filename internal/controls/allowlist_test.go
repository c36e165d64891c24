package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries(n int) []AllowlistEntry {
	entries := make([]AllowlistEntry, n)
	for i := range entries {
		entries[i] = AllowlistEntry{
			Wallet:    testAddr(byte(i + 1)),
			Price:     uint64(100 * (i + 1)),
			MaxClaims: uint64(i % 3),
		}
	}
	return entries
}

func TestTree_ProofsVerify(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		entries := testEntries(n)
		tree, err := BuildTree(entries)
		require.NoError(t, err)
		assert.Equal(t, n, tree.Len())

		for i, e := range entries {
			proof, err := tree.Proof(i)
			require.NoError(t, err)
			assert.True(t, VerifyProof(proof, tree.Root(), LeafNode(e)), "n=%d i=%d", n, i)
		}
	}
}

func TestTree_SingleEntryEmptyProof(t *testing.T) {
	entries := testEntries(1)
	tree, err := BuildTree(entries)
	require.NoError(t, err)

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.Equal(t, LeafNode(entries[0]), tree.Root())
}

func TestTree_Empty(t *testing.T) {
	_, err := BuildTree(nil)
	assert.ErrorIs(t, err, ErrEmptyAllowlist)
}

func TestVerifyProof_MutationBreaks(t *testing.T) {
	entries := testEntries(6)
	tree, err := BuildTree(entries)
	require.NoError(t, err)

	proof, err := tree.Proof(3)
	require.NoError(t, err)
	require.NotEmpty(t, proof)
	leaf := LeafNode(entries[3])

	for i := range proof {
		for _, bit := range []byte{0x01, 0x80} {
			mutated := append([]Hash(nil), proof...)
			mutated[i][7] ^= bit
			assert.False(t, VerifyProof(mutated, tree.Root(), leaf), "sibling %d", i)
		}
	}

	root := tree.Root()
	root[0] ^= 0x01
	assert.False(t, VerifyProof(proof, root, leaf))

	// a leaf hash without the node prefix is not a tree member
	assert.False(t, VerifyProof(proof, tree.Root(), LeafHash(entries[3])))
}

func TestLeafHash_CommitsEveryField(t *testing.T) {
	base := AllowlistEntry{Wallet: testAddr(1), Price: 500, MaxClaims: 2}
	h := LeafHash(base)

	changed := base
	changed.Price = 501
	assert.NotEqual(t, h, LeafHash(changed))

	changed = base
	changed.MaxClaims = 3
	assert.NotEqual(t, h, LeafHash(changed))

	changed = base
	changed.Wallet = testAddr(2)
	assert.NotEqual(t, h, LeafHash(changed))
}

func TestVerifyAllowlist(t *testing.T) {
	entries := testEntries(4)
	entries[1].MaxClaims = 2
	tree, err := BuildTree(entries)
	require.NoError(t, err)
	proof, err := tree.Proof(1)
	require.NoError(t, err)

	wallet := entries[1].Wallet
	stats := &MinterStats{Wallet: wallet}
	claim := AllowlistClaim{Proof: proof, Price: u64p(entries[1].Price), MaxClaims: u64p(2)}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, VerifyAllowlist(tree.Root(), wallet, claim, stats))
	})

	t.Run("missing params", func(t *testing.T) {
		c := claim
		c.Proof = nil
		assert.ErrorIs(t, VerifyAllowlist(tree.Root(), wallet, c, stats), ErrMissingAllowlistParams)

		c = claim
		c.Price = nil
		assert.ErrorIs(t, VerifyAllowlist(tree.Root(), wallet, c, stats), ErrMissingAllowlistParams)
	})

	t.Run("forged price", func(t *testing.T) {
		c := claim
		c.Price = u64p(1)
		assert.ErrorIs(t, VerifyAllowlist(tree.Root(), wallet, c, stats), ErrInvalidProof)
	})

	t.Run("inflated max claims", func(t *testing.T) {
		c := claim
		c.MaxClaims = u64p(10)
		assert.ErrorIs(t, VerifyAllowlist(tree.Root(), wallet, c, stats), ErrInvalidProof)
	})

	t.Run("other wallet", func(t *testing.T) {
		assert.ErrorIs(t, VerifyAllowlist(tree.Root(), testAddr(0x77), claim, stats), ErrInvalidProof)
	})

	t.Run("cap reached", func(t *testing.T) {
		used := &MinterStats{Wallet: wallet, MintCount: 2}
		assert.ErrorIs(t, VerifyAllowlist(tree.Root(), wallet, claim, used), ErrAllowlistCap)
	})
}

func TestTree_Find(t *testing.T) {
	entries := testEntries(3)
	tree, err := BuildTree(entries)
	require.NoError(t, err)

	e, idx, ok := tree.Find(entries[2].Wallet)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, entries[2], e)

	_, _, ok = tree.Find(testAddr(0xee))
	assert.False(t, ok)
}
