package minter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/issuer"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

var ErrMinterRequired = errors.New("minter wallet required")

// Issuer hands out one unit of a collection inside the mint transaction
type Issuer interface {
	Issue(ctx context.Context, tx *storage.Tx, req issuer.Request) (*storage.IssuedToken, error)
}

// Journal keeps committed receipts
type Journal interface {
	Append(r *controls.Receipt) error
	List(collection controls.Address, limit int) ([]controls.Receipt, error)
}

// Notifier is told about committed mints. Calls happen after commit and must not block for long.
type Notifier interface {
	NotifyMint(ctx context.Context, r *controls.Receipt)
	NotifyPhaseSoldOut(ctx context.Context, collection controls.Address, index uint32, phase controls.Phase)
}

// Options carries service-level settings that are not per-collection
type Options struct {
	PrimaryAdmin      controls.Address
	SecondaryAdmin    controls.Address
	DefaultPriceToken string
}

// Service runs mint attempts and administrative operations against the host store.
type Service struct {
	store    *storage.Storage
	issuer   Issuer
	journal  Journal
	notifier Notifier
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// New creates a mint service. notifier may be nil.
func New(store *storage.Storage, iss Issuer, journal Journal, notifier Notifier, opts Options, log *slog.Logger) *Service {
	if opts.DefaultPriceToken == "" {
		opts.DefaultPriceToken = "TON"
	}
	return &Service{
		store:    store,
		issuer:   iss,
		journal:  journal,
		notifier: notifier,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Request is one mint attempt
type Request struct {
	Collection controls.Address
	PhaseIndex uint32
	Minter     controls.Address // receives the unit and is counted against caps
	Payer      controls.Address // debited; zero means the minter pays
	Signer     controls.Address // authenticated caller identity, checked against the co-signer
	Claim      controls.AllowlistClaim

	// Price, when set, must equal the price the attempt will be charged.
	Price *uint64

	// Recipients, when set, is the caller's fee routing by slot and must match
	// every active configured recipient.
	Recipients []controls.Address
}

// SetNotifier attaches n after construction, for notifiers that read back
// through the service. Call it before the service handles requests.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Mint runs one attempt. Either every effect commits (counters, phase mints,
// transfers, issued unit) or none does.
func (s *Service) Mint(ctx context.Context, req Request) (*controls.Receipt, error) {
	if req.Minter.IsZero() {
		return nil, ErrMinterRequired
	}
	payer := req.Payer
	if payer.IsZero() {
		payer = req.Minter
	}

	var (
		receipt  *controls.Receipt
		soldOut  bool
		phaseNow controls.Phase
	)
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		c, err := tx.Controls(ctx, req.Collection)
		if err != nil {
			return err
		}
		if !c.Cosigner.IsZero() && req.Signer != c.Cosigner {
			return controls.ErrCosignerRequired
		}

		phase, err := c.Phase(req.PhaseIndex)
		if err != nil {
			return err
		}
		global, err := tx.MinterStats(ctx, req.Collection, req.Minter, nil)
		if err != nil {
			return err
		}
		perPhase, err := tx.MinterStats(ctx, req.Collection, req.Minter, &req.PhaseIndex)
		if err != nil {
			return err
		}

		now := s.now()
		if err := controls.CheckPhase(phase, req.Minter, global, perPhase, c, now, req.Claim); err != nil {
			return err
		}

		price := controls.EffectivePrice(phase, req.Claim)
		if req.Price != nil && *req.Price != price {
			return fmt.Errorf("%w: supplied %d, charged %d", controls.ErrPriceMismatch, *req.Price, price)
		}

		// counters move before any value does
		if err := global.Increment(); err != nil {
			return err
		}
		if err := perPhase.Increment(); err != nil {
			return err
		}
		if err := phase.RecordMint(); err != nil {
			return err
		}
		if err := tx.SaveMinterStats(ctx, req.Collection, nil, global); err != nil {
			return err
		}
		if err := tx.SaveMinterStats(ctx, req.Collection, &req.PhaseIndex, perPhase); err != nil {
			return err
		}
		if err := tx.SavePhaseState(ctx, req.Collection, req.PhaseIndex, phase); err != nil {
			return err
		}

		split, err := controls.SplitFee(price, c.Fee)
		if err != nil {
			return err
		}
		if req.Recipients != nil {
			if err := controls.MatchRecipients(c.Fee, req.Recipients); err != nil {
				return err
			}
		}

		token := phase.PriceToken
		for _, p := range split.Payouts {
			if err := tx.Transfer(ctx, payer, p.Address, token, p.Amount); err != nil {
				return err
			}
		}
		if err := tx.Transfer(ctx, payer, c.Treasury, token, split.Remaining); err != nil {
			return err
		}

		issued, err := s.issuer.Issue(ctx, tx, issuer.Request{
			Collection: req.Collection,
			Owner:      req.Minter,
			Phase:      req.PhaseIndex,
		})
		if err != nil {
			return err
		}

		receipt = &controls.Receipt{
			ID:               uuid.NewString(),
			Collection:       req.Collection,
			Phase:            req.PhaseIndex,
			Minter:           req.Minter,
			Payer:            payer,
			Signer:           req.Signer,
			PriceToken:       token,
			Split:            split,
			Treasury:         c.Treasury,
			TokenID:          issued.TokenID,
			TokenNumber:      issued.Number,
			PhaseMints:       phase.CurrentMints,
			WalletMints:      global.MintCount,
			WalletPhaseMints: perPhase.MintCount,
			CreatedAt:        now.UTC(),
		}
		soldOut = phase.SoldOut()
		phaseNow = *phase
		return nil
	})
	if err != nil {
		s.log.Debug("mint denied",
			"collection", req.Collection.String(),
			"phase", req.PhaseIndex,
			"minter", req.Minter.String(),
			"code", controls.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	s.log.Info("mint committed",
		"collection", req.Collection.String(),
		"phase", req.PhaseIndex,
		"minter", req.Minter.String(),
		"token_id", receipt.TokenID,
		"price", receipt.Split.Price,
	)

	if err := s.journal.Append(receipt); err != nil {
		s.log.Error("append receipt", "receipt", receipt.ID, "error", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyMint(ctx, receipt)
		if soldOut {
			s.notifier.NotifyPhaseSoldOut(ctx, req.Collection, req.PhaseIndex, phaseNow)
		}
	}
	return receipt, nil
}
