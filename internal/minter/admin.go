package minter

import (
	"context"
	"fmt"

	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

// CreateCollection registers a collection with its controls. caller becomes the creator.
func (s *Service) CreateCollection(ctx context.Context, caller controls.Address, in controls.InitInput) (*controls.Deployment, *controls.Controls, error) {
	if caller.IsZero() {
		return nil, nil, fmt.Errorf("%w: create collection requires an identity", controls.ErrNotPermitted)
	}
	in.Creator = caller

	d, c, err := controls.NewControls(in, s.opts.PrimaryAdmin, s.opts.SecondaryAdmin)
	if err != nil {
		return nil, nil, err
	}
	d.CreatedAt = s.now().UTC()

	err = s.store.WithTx(ctx, func(tx *storage.Tx) error {
		return tx.CreateCollection(ctx, d, c)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("collection created", "collection", d.Collection.String(), "creator", caller.String(), "max_supply", d.MaxSupply)
	return d, c, nil
}

// AppendPhase adds a phase to collection on behalf of caller and returns its index
func (s *Service) AppendPhase(ctx context.Context, caller, collection controls.Address, phase controls.Phase) (uint32, error) {
	if phase.PriceToken == "" {
		phase.PriceToken = s.opts.DefaultPriceToken
	}

	var index uint32
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		c, err := tx.Controls(ctx, collection)
		if err != nil {
			return err
		}
		index, err = c.AppendPhase(controls.PermissionsFor(caller, c), phase)
		if err != nil {
			return err
		}
		return tx.InsertPhase(ctx, collection, index, &c.Phases[index])
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("phase added", "collection", collection.String(), "phase", index, "private", phase.IsPrivate)
	return index, nil
}

// SetPhaseActive toggles one phase of collection
func (s *Service) SetPhaseActive(ctx context.Context, caller, collection controls.Address, index uint32, active bool) error {
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		c, err := tx.Controls(ctx, collection)
		if err != nil {
			return err
		}
		if err := c.SetPhaseActive(controls.PermissionsFor(caller, c), index, active); err != nil {
			return err
		}
		return tx.SavePhaseState(ctx, collection, index, &c.Phases[index])
	})
	if err != nil {
		return err
	}

	s.log.Info("phase switched", "collection", collection.String(), "phase", index, "active", active)
	return nil
}

// UpdateFee replaces the platform fee of collection
func (s *Service) UpdateFee(ctx context.Context, caller, collection controls.Address, fee controls.FeeConfig) error {
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		c, err := tx.Controls(ctx, collection)
		if err != nil {
			return err
		}
		if err := c.UpdateFeeConfig(controls.PermissionsFor(caller, c), fee); err != nil {
			return err
		}
		return tx.SaveFee(ctx, collection, c.Fee)
	})
	if err != nil {
		return err
	}

	s.log.Info("platform fee updated", "collection", collection.String(), "by", caller.String(), "flat", fee.IsFlat, "value", fee.Value)
	return nil
}

// Credit funds account. Only the platform admins may mint ledger balance.
func (s *Service) Credit(ctx context.Context, caller, account controls.Address, token string, amount uint64) (uint64, error) {
	if !s.isPlatformAdmin(caller) {
		return 0, fmt.Errorf("%w: credit requires a platform admin", controls.ErrNotPermitted)
	}
	if token == "" {
		token = s.opts.DefaultPriceToken
	}
	bal, err := s.store.Credit(ctx, account, token, amount)
	if err != nil {
		return 0, err
	}
	s.log.Info("ledger credit", "account", account.String(), "token", token, "amount", amount, "by", caller.String())
	return bal, nil
}

func (s *Service) isPlatformAdmin(caller controls.Address) bool {
	if caller.IsZero() {
		return false
	}
	return caller == s.opts.PrimaryAdmin || caller == s.opts.SecondaryAdmin
}

// Collection returns the deployment and controls of collection
func (s *Service) Collection(ctx context.Context, collection controls.Address) (*controls.Deployment, *controls.Controls, error) {
	d, err := s.store.Deployment(ctx, collection)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.store.Controls(ctx, collection)
	if err != nil {
		return nil, nil, err
	}
	return d, c, nil
}

func (s *Service) WalletStats(ctx context.Context, collection, wallet controls.Address) (*storage.WalletStats, error) {
	return s.store.WalletStats(ctx, collection, wallet)
}

func (s *Service) Receipts(collection controls.Address, limit int) ([]controls.Receipt, error) {
	return s.journal.List(collection, limit)
}

func (s *Service) Balances(ctx context.Context, account controls.Address) ([]storage.Balance, error) {
	return s.store.Balances(ctx, account)
}
