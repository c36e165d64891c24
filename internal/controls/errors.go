package controls

import "errors"

// Kind groups failure reasons the way callers react to them.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindPhase         Kind = "phase"
	KindCap           Kind = "cap"
	KindAllowlist     Kind = "allowlist"
	KindArithmetic    Kind = "arithmetic"
	KindRouting       Kind = "routing"
	KindAuthorization Kind = "authorization"
	KindFunds         Kind = "funds"
	KindIssuance      Kind = "issuance"
)

// Error is a typed failure reason. Values are compared by identity with errors.Is.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

var (
	// configuration
	ErrInvalidFeeShares      = newError(KindConfiguration, "invalid_fee_shares", "total fee shares must equal 100")
	ErrTooManyRecipients     = newError(KindConfiguration, "too_many_recipients", "too many platform fee recipients, maximum is 5")
	ErrFeeExceedsPrice       = newError(KindConfiguration, "fee_exceeds_price", "total fee exceeds the price amount")
	ErrFeeBasisPointsInvalid = newError(KindConfiguration, "fee_basis_points_invalid", "proportional fee must not exceed 10000 basis points")
	ErrInvalidPhaseWindow    = newError(KindConfiguration, "invalid_phase_window", "phase start time must be before end time")
	ErrInvalidControls       = newError(KindConfiguration, "invalid_controls", "invalid mint controls")

	// phase
	ErrNoPhasesAdded     = newError(KindPhase, "no_phases_added", "no phases added, cannot mint")
	ErrInvalidPhaseIndex = newError(KindPhase, "invalid_phase_index", "phase index out of range")
	ErrPhaseInactive     = newError(KindPhase, "phase_inactive", "phase not active")
	ErrPhaseNotStarted   = newError(KindPhase, "phase_not_started", "phase not yet started")
	ErrPhaseEnded        = newError(KindPhase, "phase_ended", "phase already finished")
	ErrPhaseSoldOut      = newError(KindPhase, "phase_sold_out", "total mints exceeded in this phase")

	// caps
	ErrWalletCapCollection = newError(KindCap, "wallet_cap_collection", "wallet has exceeded max mints for the collection")
	ErrWalletCapPhase      = newError(KindCap, "wallet_cap_phase", "wallet has exceeded max mints in the current phase")
	ErrAllowlistCap        = newError(KindCap, "allowlist_cap", "wallet has exceeded max claims in the current private phase")

	// allowlist
	ErrMissingAllowlistParams = newError(KindAllowlist, "missing_allowlist_parameters", "merkle proof, allow list price and max claims are required for allow list mint")
	ErrInvalidProof           = newError(KindAllowlist, "invalid_proof", "invalid merkle proof")
	ErrAllowlistRootMissing   = newError(KindAllowlist, "allowlist_root_missing", "merkle root not set for private phase")
	ErrPriceMismatch          = newError(KindAllowlist, "price_mismatch", "supplied price does not match the effective mint price")

	// arithmetic
	ErrArithmeticOverflow = newError(KindArithmetic, "arithmetic_overflow", "arithmetic overflow")

	// routing
	ErrRecipientMismatch = newError(KindRouting, "recipient_mismatch", "recipient account does not match the expected address")

	// authorization
	ErrNotPermitted     = newError(KindAuthorization, "not_permitted", "caller lacks the required permission")
	ErrCosignerRequired = newError(KindAuthorization, "cosigner_required", "mint must be co-signed by the configured co-signer")

	// funds and issuance
	ErrInsufficientFunds = newError(KindFunds, "insufficient_funds", "insufficient funds")
	ErrMintedOut         = newError(KindIssuance, "minted_out", "collection minted out")
	ErrIssuanceRejected  = newError(KindIssuance, "issuance_rejected", "issuance service refused the unit")
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// CodeOf returns the stable code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
