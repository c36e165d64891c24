package controls

import (
	"fmt"
	"math/bits"
)

// Payout is the amount owed to one fee slot.
type Payout struct {
	Slot    int     `json:"slot"`
	Address Address `json:"address"`
	Amount  uint64  `json:"amount"`
}

// Split is the full division of a mint price. Amounts are final before any transfer runs.
type Split struct {
	Price     uint64   `json:"price"`
	TotalFee  uint64   `json:"total_fee"`
	Remaining uint64   `json:"remaining"` // owed to the treasury
	Payouts   []Payout `json:"payouts"`

	// Slack is TotalFee minus the sum of payouts. It is never charged.
	Slack uint64 `json:"slack"`
}

// Distributed is the sum of all recipient payouts.
func (s Split) Distributed() uint64 {
	var sum uint64
	for _, p := range s.Payouts {
		sum += p.Amount
	}
	return sum
}

// Charged is what the payer is debited: payouts plus the treasury remainder.
func (s Split) Charged() uint64 {
	return s.Distributed() + s.Remaining
}

// ValidateShares checks the share invariant: every share within [0,100], total exactly 100.
func (f FeeConfig) ValidateShares() error {
	if len(f.Recipients) > MaxFeeRecipients {
		return ErrTooManyRecipients
	}
	var total uint64
	for i, r := range f.Recipients {
		if r.Share > 100 {
			return fmt.Errorf("%w: slot %d share %d", ErrInvalidFeeShares, i, r.Share)
		}
		total += uint64(r.Share)
	}
	if total != 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidFeeShares, total)
	}
	return nil
}

// Validate is the configuration-time check applied by UpdateFeeConfig.
func (f FeeConfig) Validate() error {
	if err := f.ValidateShares(); err != nil {
		return err
	}
	if !f.IsFlat && f.Value > BasisPoints {
		return ErrFeeBasisPointsInvalid
	}
	return nil
}

// SplitFee computes the fee owed on price. Recipients are paid
// floor(total_fee * share / 100) in slot order; the truncation remainder is
// left out of both payouts and the treasury amount.
func SplitFee(price uint64, fee FeeConfig) (Split, error) {
	if err := fee.ValidateShares(); err != nil {
		return Split{}, err
	}

	var total uint64
	if fee.IsFlat {
		total = fee.Value
		if total > price {
			return Split{}, fmt.Errorf("%w: fee %d, price %d", ErrFeeExceedsPrice, total, price)
		}
	} else {
		product, err := checkedMul(price, fee.Value)
		if err != nil {
			return Split{}, err
		}
		total = product / BasisPoints
	}

	remaining, err := checkedSub(price, total)
	if err != nil {
		return Split{}, err
	}

	split := Split{
		Price:     price,
		TotalFee:  total,
		Remaining: remaining,
	}
	for i, r := range fee.Recipients {
		if !r.Active() {
			continue
		}
		product, err := checkedMul(total, uint64(r.Share))
		if err != nil {
			return Split{}, err
		}
		split.Payouts = append(split.Payouts, Payout{
			Slot:    i,
			Address: r.Address,
			Amount:  product / 100,
		})
	}
	split.Slack = total - split.Distributed()
	return split, nil
}

// MatchRecipients binds caller-supplied payout accounts to the configuration.
// accounts[i] must equal the configured address of every active slot i.
func MatchRecipients(fee FeeConfig, accounts []Address) error {
	for i, r := range fee.Recipients {
		if !r.Active() {
			continue
		}
		if i >= len(accounts) || accounts[i] != r.Address {
			return fmt.Errorf("%w: slot %d", ErrRecipientMismatch, i)
		}
	}
	return nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticOverflow
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}
