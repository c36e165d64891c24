package controls

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/tonkeeper/tongo/ton"
)

// Address identifies a wallet, a collection or a fee recipient.
// The zero value is the null address.
type Address struct {
	id ton.AccountID
}

// ParseAddress accepts raw (0:...) and user-friendly (UQ.../EQ...) forms.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, nil
	}
	acc, err := ton.ParseAccountID(s)
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return Address{id: acc}, nil
}

// MustParseAddress panics on malformed input. Intended for tests and constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromAccount wraps an already parsed account id.
func AddressFromAccount(acc ton.AccountID) Address {
	return Address{id: acc}
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the raw form used as storage key.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return a.id.String()
}

// Friendly returns the bounceable, url-safe form shown to people.
func (a Address) Friendly() string {
	if a.IsZero() {
		return ""
	}
	return a.id.ToHuman(true, false)
}

// Bytes is the canonical encoding hashed into allowlist leaves and counter keys:
// 4-byte big-endian workchain followed by the 32-byte account hash.
func (a Address) Bytes() []byte {
	out := make([]byte, 4, 36)
	binary.BigEndian.PutUint32(out, uint32(a.id.Workchain))
	return append(out, a.id.Address[:]...)
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
