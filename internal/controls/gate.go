package controls

import (
	"fmt"
	"time"
)

// CheckPhase decides whether minter may mint once against phase. Checks run in
// a fixed order and the first failure is returned; nothing is mutated.
func CheckPhase(phase *Phase, minter Address, global, perPhase *MinterStats, c *Controls, now time.Time, claim AllowlistClaim) error {
	if !phase.Active {
		return ErrPhaseInactive
	}
	if now.Before(phase.StartTime) {
		return ErrPhaseNotStarted
	}
	if !phase.EndTime.IsZero() && !now.Before(phase.EndTime) {
		return ErrPhaseEnded
	}
	if phase.SoldOut() {
		return fmt.Errorf("%w: %d of %d", ErrPhaseSoldOut, phase.CurrentMints, phase.MaxMintsTotal)
	}
	if c.MaxMintsPerWallet > 0 && global.MintCount >= c.MaxMintsPerWallet {
		return fmt.Errorf("%w: %d of %d", ErrWalletCapCollection, global.MintCount, c.MaxMintsPerWallet)
	}

	if !phase.IsPrivate {
		if phase.MaxMintsPerWallet > 0 && perPhase.MintCount >= phase.MaxMintsPerWallet {
			return fmt.Errorf("%w: %d of %d", ErrWalletCapPhase, perPhase.MintCount, phase.MaxMintsPerWallet)
		}
		return nil
	}

	// private phases take price and cap from the proof payload
	if phase.MerkleRoot == nil {
		return ErrAllowlistRootMissing
	}
	return VerifyAllowlist(*phase.MerkleRoot, minter, claim, perPhase)
}

// EffectivePrice is what the minter is charged: the phase price for public
// phases, the leaf-committed price for private ones.
func EffectivePrice(phase *Phase, claim AllowlistClaim) uint64 {
	if phase.IsPrivate && claim.Price != nil {
		return *claim.Price
	}
	return phase.PriceAmount
}
