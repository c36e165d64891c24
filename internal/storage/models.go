package storage

import (
	"time"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// Balance is one ledger entry: what account holds of token
type Balance struct {
	Account controls.Address `json:"account"`
	Token   string           `json:"token"`
	Amount  uint64           `json:"amount"`
}

// IssuedToken is one unit issued from a collection
type IssuedToken struct {
	TokenID    string           `json:"token_id"`
	Collection controls.Address `json:"collection"`
	Owner      controls.Address `json:"owner"`
	Number     uint64           `json:"number"` // 1-based position in the collection supply
	Phase      uint32           `json:"phase"`
	IssuedAt   time.Time        `json:"issued_at"`
}

// WalletStats is everything counted for one wallet in one collection
type WalletStats struct {
	Collection controls.Address  `json:"collection"`
	Wallet     controls.Address  `json:"wallet"`
	Total      uint64            `json:"total"`
	PerPhase   map[uint32]uint64 `json:"per_phase"`
	Tokens     []IssuedToken     `json:"tokens"`
}
