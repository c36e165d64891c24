package controls

import "time"

// Receipt records one successful mint: who paid what to whom, and what was issued.
type Receipt struct {
	ID               string    `json:"id"`
	Seq              uint64    `json:"seq"`
	Collection       Address   `json:"collection"`
	Phase            uint32    `json:"phase"`
	Minter           Address   `json:"minter"`
	Payer            Address   `json:"payer"`
	Signer           Address   `json:"signer"`
	PriceToken       string    `json:"price_token"`
	Split            Split     `json:"split"`
	Treasury         Address   `json:"treasury"`
	TokenID          string    `json:"token_id"`
	TokenNumber      uint64    `json:"token_number"` // position in the collection supply
	PhaseMints       uint64    `json:"phase_mints"`
	WalletMints      uint64    `json:"wallet_mints"`
	WalletPhaseMints uint64    `json:"wallet_phase_mints"`
	CreatedAt        time.Time `json:"created_at"`
}
