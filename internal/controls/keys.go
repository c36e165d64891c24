package controls

import (
	"encoding/binary"
	"encoding/hex"
)

// GlobalStatsKey addresses the collection-wide counter of wallet.
func GlobalStatsKey(collection, wallet Address) string {
	h := hashv([]byte("minter_stats"), collection.Bytes(), wallet.Bytes())
	return hex.EncodeToString(h[:])
}

// PhaseStatsKey addresses the counter of wallet inside one phase.
func PhaseStatsKey(collection, wallet Address, phase uint32) string {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], phase)
	h := hashv([]byte("minter_stats_phase"), collection.Bytes(), wallet.Bytes(), idx[:])
	return hex.EncodeToString(h[:])
}
