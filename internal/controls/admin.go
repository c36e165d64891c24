package controls

import (
	"fmt"
	"strings"
)

// Permission is a capability granted to the caller of an administrative operation.
type Permission uint8

const (
	PermCreator Permission = 1 << iota
	PermPrimaryAdmin
	PermSecondaryAdmin
)

// Permissions is a set of Permission bits.
type Permissions uint8

func (p Permissions) Has(perm Permission) bool {
	return uint8(p)&uint8(perm) != 0
}

func (p Permissions) With(perm Permission) Permissions {
	return Permissions(uint8(p) | uint8(perm))
}

func (p Permissions) String() string {
	var names []string
	if p.Has(PermCreator) {
		names = append(names, "creator")
	}
	if p.Has(PermPrimaryAdmin) {
		names = append(names, "primary_admin")
	}
	if p.Has(PermSecondaryAdmin) {
		names = append(names, "secondary_admin")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// PermissionsFor derives what caller may do on c.
func PermissionsFor(caller Address, c *Controls) Permissions {
	var p Permissions
	if caller.IsZero() {
		return p
	}
	if caller == c.Creator {
		p = p.With(PermCreator)
	}
	if caller == c.PrimaryAdmin {
		p = p.With(PermPrimaryAdmin)
	}
	if caller == c.SecondaryAdmin {
		p = p.With(PermSecondaryAdmin)
	}
	return p
}

// InitInput creates a collection together with its controls.
type InitInput struct {
	Collection        Address   `json:"collection"`
	Creator           Address   `json:"creator"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	MaxSupply         uint64    `json:"max_supply"`
	Treasury          Address   `json:"treasury"`
	MaxMintsPerWallet uint64    `json:"max_mints_per_wallet"`
	Cosigner          Address   `json:"cosigner"`
	Fee               FeeConfig `json:"platform_fee"`
}

// NewControls validates in and builds the deployment and its empty-phase controls.
// The platform admins come from service configuration, not from the creator.
func NewControls(in InitInput, primaryAdmin, secondaryAdmin Address) (*Deployment, *Controls, error) {
	switch {
	case in.Collection.IsZero():
		return nil, nil, fmt.Errorf("%w: collection address required", ErrInvalidControls)
	case in.Creator.IsZero():
		return nil, nil, fmt.Errorf("%w: creator address required", ErrInvalidControls)
	case in.Treasury.IsZero():
		return nil, nil, fmt.Errorf("%w: treasury address required", ErrInvalidControls)
	case strings.TrimSpace(in.Symbol) == "":
		return nil, nil, fmt.Errorf("%w: symbol required", ErrInvalidControls)
	}
	if err := in.Fee.Validate(); err != nil {
		return nil, nil, err
	}

	d := &Deployment{
		Collection: in.Collection,
		Creator:    in.Creator,
		Name:       strings.TrimSpace(in.Name),
		Symbol:     strings.TrimSpace(in.Symbol),
		MaxSupply:  in.MaxSupply,
	}
	c := &Controls{
		Collection:        in.Collection,
		Creator:           in.Creator,
		Treasury:          in.Treasury,
		MaxMintsPerWallet: in.MaxMintsPerWallet,
		Cosigner:          in.Cosigner,
		PrimaryAdmin:      primaryAdmin,
		SecondaryAdmin:    secondaryAdmin,
		Fee:               cloneFee(in.Fee),
	}
	return d, c, nil
}

// AppendPhase adds phase at the end of the list and returns its index.
// Existing phases are never reordered or removed.
func (c *Controls) AppendPhase(perms Permissions, phase Phase) (uint32, error) {
	if !perms.Has(PermCreator) {
		return 0, fmt.Errorf("%w: append phase requires creator", ErrNotPermitted)
	}
	if !phase.EndTime.IsZero() && !phase.StartTime.Before(phase.EndTime) {
		return 0, ErrInvalidPhaseWindow
	}
	if phase.IsPrivate && phase.MerkleRoot == nil {
		return 0, ErrAllowlistRootMissing
	}
	if uint64(len(c.Phases)) >= 1<<32 {
		return 0, ErrArithmeticOverflow
	}
	phase.CurrentMints = 0
	c.Phases = append(c.Phases, phase)
	return uint32(len(c.Phases) - 1), nil
}

// SetPhaseActive flips the manual kill switch of one phase.
func (c *Controls) SetPhaseActive(perms Permissions, index uint32, active bool) error {
	if !perms.Has(PermCreator) {
		return fmt.Errorf("%w: phase activation requires creator", ErrNotPermitted)
	}
	phase, err := c.Phase(index)
	if err != nil {
		return err
	}
	phase.Active = active
	return nil
}

// UpdateFeeConfig replaces the platform fee wholesale.
func (c *Controls) UpdateFeeConfig(perms Permissions, fee FeeConfig) error {
	if !perms.Has(PermPrimaryAdmin) && !perms.Has(PermSecondaryAdmin) {
		return fmt.Errorf("%w: fee update requires a platform fee admin", ErrNotPermitted)
	}
	if err := fee.Validate(); err != nil {
		return err
	}
	c.Fee = cloneFee(fee)
	return nil
}

func cloneFee(f FeeConfig) FeeConfig {
	f.Recipients = append([]Recipient(nil), f.Recipients...)
	return f
}
