package controls

import (
	"fmt"
	"strings"
	"time"
)

// testAddr builds a workchain-0 address whose hash is b repeated.
func testAddr(b byte) Address {
	return MustParseAddress("0:" + strings.Repeat(fmt.Sprintf("%02x", b), 32))
}

func u64p(v uint64) *uint64 { return &v }

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openPhase() Phase {
	return Phase{
		PriceAmount: 1000,
		PriceToken:  "TON",
		StartTime:   testNow.Add(-time.Hour),
		Active:      true,
	}
}
