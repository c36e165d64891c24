package controls

import "errors"

var ErrEmptyAllowlist = errors.New("allowlist has no entries")

// Tree is an allowlist Merkle tree built bottom-up from leaf nodes.
type Tree struct {
	entries []AllowlistEntry
	levels  [][]Hash
}

// BuildTree hashes entries in the given order. An odd node at any level is
// paired with itself.
func BuildTree(entries []AllowlistEntry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyAllowlist
	}
	level := make([]Hash, len(entries))
	for i, e := range entries {
		level[i] = LeafNode(e)
	}
	t := &Tree{
		entries: append([]AllowlistEntry(nil), entries...),
		levels:  [][]Hash{level},
	}
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, parentHash(level[i], level[i+1]))
			} else {
				next = append(next, parentHash(level[i], level[i]))
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

func (t *Tree) Root() Hash {
	return t.levels[len(t.levels)-1][0]
}

func (t *Tree) Len() int {
	return len(t.entries)
}

// Proof returns the sibling path for the entry at index i.
func (t *Tree) Proof(i int) ([]Hash, error) {
	if i < 0 || i >= len(t.entries) {
		return nil, errors.New("allowlist entry index out of range")
	}
	proof := make([]Hash, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		if sibling >= len(level) {
			sibling = i
		}
		proof = append(proof, level[sibling])
		i /= 2
	}
	return proof, nil
}

// Find returns the first entry for wallet and its index.
func (t *Tree) Find(wallet Address) (AllowlistEntry, int, bool) {
	for i, e := range t.entries {
		if e.Wallet == wallet {
			return e, i, true
		}
	}
	return AllowlistEntry{}, -1, false
}
