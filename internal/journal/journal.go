package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

var ErrNotFound = errors.New("receipt not found")

var seqKey = []byte("meta:seq")

// Journal is an append-only log of mint receipts kept in LevelDB.
//
// Layout:
//
//	receipt:<collection>:<seq>  receipt JSON, seq zero-padded so keys sort by append order
//	id:<receipt id>             receipt key
//	meta:seq                    last assigned sequence number
type Journal struct {
	db *leveldb.DB

	mu  sync.Mutex
	seq uint64
}

// Open opens (or creates) the journal at path
func Open(path string) (*Journal, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{db: db}
	raw, err := db.Get(seqKey, nil)
	switch {
	case err == nil:
		j.seq = binary.BigEndian.Uint64(raw)
	case errors.Is(err, leveldb.ErrNotFound):
	default:
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores r under the next sequence number and sets r.Seq.
func (j *Journal) Append(r *controls.Receipt) error {
	if r.ID == "" {
		return errors.New("receipt id required")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	seq := j.seq + 1
	r.Seq = seq
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	key := receiptKey(r.Collection, seq)
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)

	batch := new(leveldb.Batch)
	batch.Put(key, data)
	batch.Put(idKey(r.ID), key)
	batch.Put(seqKey, seqBuf[:])
	if err := j.db.Write(batch, nil); err != nil {
		return err
	}
	j.seq = seq
	return nil
}

// Get returns the receipt with the given id
func (j *Journal) Get(id string) (*controls.Receipt, error) {
	key, err := j.db.Get(idKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	data, err := j.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	var r controls.Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns up to limit receipts of collection, newest first
func (j *Journal) List(collection controls.Address, limit int) ([]controls.Receipt, error) {
	iter := j.db.NewIterator(util.BytesPrefix(collectionPrefix(collection)), nil)
	defer iter.Release()

	var out []controls.Receipt
	for ok := iter.Last(); ok && (limit <= 0 || len(out) < limit); ok = iter.Prev() {
		var r controls.Receipt
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("decode receipt %s: %w", iter.Key(), err)
		}
		out = append(out, r)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func collectionPrefix(collection controls.Address) []byte {
	return []byte("receipt:" + collection.String() + ":")
}

func receiptKey(collection controls.Address, seq uint64) []byte {
	return append(collectionPrefix(collection), fmt.Sprintf("%020d", seq)...)
}

func idKey(id string) []byte {
	return []byte("id:" + id)
}
