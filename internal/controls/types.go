package controls

import (
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// MaxFeeRecipients bounds FeeConfig.Recipients.
	MaxFeeRecipients = 5
	// BasisPoints is the denominator of a proportional fee.
	BasisPoints = 10_000
)

// Hash is a 32-byte digest: allowlist roots, proof siblings and leaves.
type Hash [32]byte

func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("hash must be %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Deployment is the issued collection: who created it and how much of it exists.
type Deployment struct {
	Collection Address   `json:"collection"`
	Creator    Address   `json:"creator"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	MaxSupply  uint64    `json:"max_supply"` // 0 = unlimited
	Supply     uint64    `json:"supply"`
	CreatedAt  time.Time `json:"created_at"`
}

// MintedOut reports whether no further unit can be issued.
func (d *Deployment) MintedOut() bool {
	return d.MaxSupply > 0 && d.Supply >= d.MaxSupply
}

// Recipient is one platform fee slot. A zero share or null address disables it.
type Recipient struct {
	Address Address `json:"address"`
	Share   uint8   `json:"share"`
}

func (r Recipient) Active() bool {
	return r.Share > 0 && !r.Address.IsZero()
}

// FeeConfig is the platform fee: a flat amount or basis points of the price.
type FeeConfig struct {
	Value      uint64      `json:"value"`
	IsFlat     bool        `json:"is_flat"`
	Recipients []Recipient `json:"recipients"`
}

// Phase is one pricing and availability window. Its index in Controls.Phases is its identity.
type Phase struct {
	PriceAmount       uint64    `json:"price_amount"`
	PriceToken        string    `json:"price_token"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"` // zero = open ended
	Active            bool      `json:"active"`
	MaxMintsPerWallet uint64    `json:"max_mints_per_wallet"` // 0 = unlimited
	MaxMintsTotal     uint64    `json:"max_mints_total"`      // 0 = unlimited
	CurrentMints      uint64    `json:"current_mints"`
	IsPrivate         bool      `json:"is_private"`
	MerkleRoot        *Hash     `json:"merkle_root,omitempty"`
}

// SoldOut reports whether the phase reached its total cap.
func (p *Phase) SoldOut() bool {
	return p.MaxMintsTotal > 0 && p.CurrentMints >= p.MaxMintsTotal
}

// Controls is the per-collection mint-control configuration.
type Controls struct {
	Collection        Address   `json:"collection"`
	Creator           Address   `json:"creator"`
	Treasury          Address   `json:"treasury"`
	MaxMintsPerWallet uint64    `json:"max_mints_per_wallet"` // 0 = unlimited
	Cosigner          Address   `json:"cosigner"`             // null = not required
	PrimaryAdmin      Address   `json:"platform_fee_primary_admin"`
	SecondaryAdmin    Address   `json:"platform_fee_secondary_admin"`
	Fee               FeeConfig `json:"platform_fee"`
	Phases            []Phase   `json:"phases"`
}

// Phase resolves an index, distinguishing an empty phase list from an out-of-range index.
func (c *Controls) Phase(index uint32) (*Phase, error) {
	if len(c.Phases) == 0 {
		return nil, ErrNoPhasesAdded
	}
	if uint64(index) >= uint64(len(c.Phases)) {
		return nil, fmt.Errorf("%w: phase %d (phases %d)", ErrInvalidPhaseIndex, index, len(c.Phases))
	}
	return &c.Phases[index], nil
}

// MinterStats is a wallet mint counter, scoped to a collection or to one phase of it.
type MinterStats struct {
	Key       string  `json:"key"`
	Wallet    Address `json:"wallet"`
	MintCount uint64  `json:"mint_count"`
}

// Increment adds exactly one mint, refusing to wrap.
func (s *MinterStats) Increment() error {
	next, err := checkedAdd(s.MintCount, 1)
	if err != nil {
		return err
	}
	s.MintCount = next
	return nil
}

// RecordMint adds exactly one mint to the phase counter, refusing to wrap.
func (p *Phase) RecordMint() error {
	next, err := checkedAdd(p.CurrentMints, 1)
	if err != nil {
		return err
	}
	p.CurrentMints = next
	return nil
}
