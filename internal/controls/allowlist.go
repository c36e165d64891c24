package controls

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Leaf and intermediate hashes carry distinct one-byte prefixes so a leaf can
// never be substituted for an internal node.
var (
	leafPrefix         = []byte{0}
	intermediatePrefix = []byte{1}
)

// AllowlistEntry is what the tree commits to for one wallet.
type AllowlistEntry struct {
	Wallet    Address `json:"wallet" yaml:"wallet"`
	Price     uint64  `json:"price" yaml:"price"`
	MaxClaims uint64  `json:"max_claims" yaml:"max_claims"` // 0 = unlimited
}

// AllowlistClaim is the allowlist part of a mint request. Nil fields mean absent.
type AllowlistClaim struct {
	Proof     []Hash
	Price     *uint64
	MaxClaims *uint64
}

// Present reports whether all three parameters were supplied.
func (c AllowlistClaim) Present() bool {
	return c.Proof != nil && c.Price != nil && c.MaxClaims != nil
}

func hashv(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// LeafHash is Hash(wallet || price LE || max_claims LE).
func LeafHash(e AllowlistEntry) Hash {
	var price, claims [8]byte
	binary.LittleEndian.PutUint64(price[:], e.Price)
	binary.LittleEndian.PutUint64(claims[:], e.MaxClaims)
	return hashv(e.Wallet.Bytes(), price[:], claims[:])
}

// LeafNode is the domain-separated tree node for an entry.
func LeafNode(e AllowlistEntry) Hash {
	leaf := LeafHash(e)
	return hashv(leafPrefix, leaf[:])
}

// parentHash orders the pair bytewise so proofs need no left/right flags.
func parentHash(a, b Hash) Hash {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return hashv(intermediatePrefix, a[:], b[:])
	}
	return hashv(intermediatePrefix, b[:], a[:])
}

// VerifyProof folds proof onto leaf and compares against root.
func VerifyProof(proof []Hash, root, leaf Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = parentHash(computed, sibling)
	}
	return computed == root
}

// VerifyAllowlist gates a private-phase mint. The claimed price and cap must be
// exactly what the tree committed for wallet, otherwise the proof fails.
func VerifyAllowlist(root Hash, wallet Address, claim AllowlistClaim, phaseStats *MinterStats) error {
	if !claim.Present() {
		return ErrMissingAllowlistParams
	}
	maxClaims := *claim.MaxClaims
	if maxClaims > 0 && phaseStats.MintCount >= maxClaims {
		return fmt.Errorf("%w: %d of %d", ErrAllowlistCap, phaseStats.MintCount, maxClaims)
	}
	node := LeafNode(AllowlistEntry{
		Wallet:    wallet,
		Price:     *claim.Price,
		MaxClaims: maxClaims,
	})
	if !VerifyProof(claim.Proof, root, node) {
		return ErrInvalidProof
	}
	return nil
}
