package journal

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

func addr(b byte) controls.Address {
	return controls.MustParseAddress("0:" + strings.Repeat(fmt.Sprintf("%02x", b), 32))
}

func receipt(collection controls.Address, price uint64) *controls.Receipt {
	return &controls.Receipt{
		ID:         uuid.NewString(),
		Collection: collection,
		Minter:     addr(0x10),
		Payer:      addr(0x10),
		PriceToken: "TON",
		Split:      controls.Split{Price: price, Remaining: price},
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestJournal_AppendListGet(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	defer j.Close()

	a, b := addr(0x01), addr(0x02)
	var ids []string
	for i := 1; i <= 3; i++ {
		r := receipt(a, uint64(i))
		require.NoError(t, j.Append(r))
		assert.Equal(t, uint64(len(ids)+1), r.Seq)
		ids = append(ids, r.ID)
	}
	require.NoError(t, j.Append(receipt(b, 99)))

	list, err := j.List(a, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)

	list, err = j.List(a, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := j.Get(ids[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Split.Price)
	assert.Equal(t, a, got.Collection)

	_, err = j.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJournal_SequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(receipt(addr(0x01), 1)))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	r := receipt(addr(0x01), 2)
	require.NoError(t, j.Append(r))
	assert.Equal(t, uint64(2), r.Seq)

	list, err := j.List(addr(0x01), 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestJournal_RequiresID(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	defer j.Close()

	assert.Error(t, j.Append(&controls.Receipt{}))
}
