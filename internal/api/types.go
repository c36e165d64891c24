package api

import (
	"github.com/suspectuso/ton-mintgate/internal/controls"
)

type mintRequest struct {
	PhaseIndex         uint32             `json:"phase_index"`
	Minter             controls.Address   `json:"minter"`
	Payer              controls.Address   `json:"payer"`
	MerkleProof        []controls.Hash    `json:"merkle_proof"`
	AllowlistPrice     *uint64            `json:"allowlist_price"`
	AllowlistMaxClaims *uint64            `json:"allowlist_max_claims"`
	Price              *uint64            `json:"price"`
	Recipients         []controls.Address `json:"recipients"`
}

type phaseSwitchRequest struct {
	Active bool `json:"active"`
}

type creditRequest struct {
	Account controls.Address `json:"account"`
	Token   string           `json:"token"`
	Amount  uint64           `json:"amount"`
}

type collectionResponse struct {
	Deployment *controls.Deployment `json:"deployment"`
	Controls   *controls.Controls   `json:"controls"`
}

type phaseResponse struct {
	Index uint32 `json:"index"`
}

type balanceResponse struct {
	Account  controls.Address `json:"account"`
	Balances []balanceEntry   `json:"balances"`
}

type balanceEntry struct {
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Kind  string `json:"kind,omitempty"`
}
