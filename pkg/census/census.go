// Package census builds the fixed-depth Merkle tree of eligible-voter
// commitments consumed by the franchise circuit. The tree lifecycle (who may
// insert voters, when roots are published) is owned by census management;
// this package only provides the structure, the membership witnesses, and
// their persistence.
package census

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vocdoni/franchise-zkproof/pkg/crypto"
	"github.com/vocdoni/franchise-zkproof/pkg/field"
)

// Tree is a fixed-depth binary Merkle tree over voter commitments. Only
// occupied positions are stored; empty subtrees use precomputed zero-subtree
// hashes, so a census smaller than 2^depth is implicitly padded with zero
// leaves. The node hash and the witness direction convention match the
// circuit exactly.
type Tree struct {
	depth      int
	numLeaves  int
	levels     []map[int]*big.Int // levels[0] = leaves, levels[depth] holds the root
	zeroHashes []*big.Int         // zeroHashes[i] = hash of an all-zero subtree at level i
}

// MaxDepth bounds the supported tree depth. Indices are kept in native ints,
// so the leaf count 2^depth must fit comfortably.
const MaxDepth = 32

// NewTree creates an empty census tree of the given depth. The tree holds at
// most 2^depth voters.
func NewTree(depth int) (*Tree, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("census depth must be in [1, %d], got %d", MaxDepth, depth)
	}

	zh := make([]*big.Int, depth+1)
	zh[0] = new(big.Int)
	for i := 1; i <= depth; i++ {
		zh[i] = crypto.HashPair(zh[i-1], zh[i-1])
	}

	levels := make([]map[int]*big.Int, depth+1)
	for i := range levels {
		levels[i] = make(map[int]*big.Int)
	}

	return &Tree{
		depth:      depth,
		levels:     levels,
		zeroHashes: zh,
	}, nil
}

// Depth returns the number of levels between a leaf and the root.
func (t *Tree) Depth() int { return t.depth }

// Len returns the number of voters added so far.
func (t *Tree) Len() int { return t.numLeaves }

// Root returns the current tree root. An empty census has the all-zero
// subtree hash as its root.
func (t *Tree) Root() *big.Int {
	if r, ok := t.levels[t.depth][0]; ok {
		return new(big.Int).Set(r)
	}
	return new(big.Int).Set(t.zeroHashes[t.depth])
}

// Add appends a voter commitment as the next leaf and updates the path to
// the root. It returns the assigned leaf index. The commitment must be a
// canonical field element.
func (t *Tree) Add(commitment *big.Int) (int, error) {
	c, err := field.FromBig(commitment)
	if err != nil {
		return 0, fmt.Errorf("invalid commitment: %w", err)
	}
	if t.numLeaves >= 1<<t.depth {
		return 0, fmt.Errorf("census is full: %d leaves at depth %d", t.numLeaves, t.depth)
	}

	index := t.numLeaves
	t.levels[0][index] = c
	t.numLeaves++

	// Recompute the ancestors of the new leaf.
	idx := index
	for lvl := 0; lvl < t.depth; lvl++ {
		parent := idx / 2
		left := t.node(lvl, parent*2)
		right := t.node(lvl, parent*2+1)
		t.levels[lvl+1][parent] = crypto.HashPair(left, right)
		idx = parent
	}

	return index, nil
}

// Leaf returns the commitment stored at the given index, or the zero leaf
// for unoccupied positions.
func (t *Tree) Leaf(index int) (*big.Int, error) {
	if index < 0 || index >= 1<<t.depth {
		return nil, fmt.Errorf("leaf index %d out of range for depth %d", index, t.depth)
	}
	return new(big.Int).Set(t.node(0, index)), nil
}

// Witness returns the membership witness for the leaf at the given index:
// exactly depth (sibling, direction) pairs ordered leaf to root. Directions
// use the circuit convention:
//
//	0 = current node is the left child  (sibling on the right)
//	1 = current node is the right child (sibling on the left)
func (t *Tree) Witness(index int) ([]*big.Int, []int, error) {
	if index < 0 || index >= t.numLeaves {
		return nil, nil, fmt.Errorf("no voter at leaf index %d (census has %d)", index, t.numLeaves)
	}

	siblings := make([]*big.Int, t.depth)
	bits := make([]int, t.depth)

	idx := index
	for lvl := 0; lvl < t.depth; lvl++ {
		if idx%2 == 0 {
			siblings[lvl] = new(big.Int).Set(t.node(lvl, idx+1))
			bits[lvl] = 0
		} else {
			siblings[lvl] = new(big.Int).Set(t.node(lvl, idx-1))
			bits[lvl] = 1
		}
		idx /= 2
	}

	return siblings, bits, nil
}

// node returns the stored hash at (level, index) or the zero-subtree hash
// for that level.
func (t *Tree) node(lvl, idx int) *big.Int {
	if h, ok := t.levels[lvl][idx]; ok {
		return h
	}
	return t.zeroHashes[lvl]
}

// CheckWitness recomputes the root from a leaf and its witness natively and
// compares it to the expected root. It mirrors the circuit's path gadget and
// is used to reject stale or corrupted witnesses before proving.
func CheckWitness(leaf, root *big.Int, siblings []*big.Int, bits []int) bool {
	if len(siblings) != len(bits) {
		return false
	}
	current := leaf
	for i := range siblings {
		switch bits[i] {
		case 0:
			current = crypto.HashPair(current, siblings[i])
		case 1:
			current = crypto.HashPair(siblings[i], current)
		default:
			return false
		}
	}
	return current.Cmp(root) == 0
}

// ---------------------------------------------------------------------------
// Serialization (binary format for persistence)
// ---------------------------------------------------------------------------
//
// Format:
//   uint32(depth) | uint32(numLeaves)
//   For each level 0..depth:
//     uint32(count)
//     For each entry:
//       uint32(index) | [32]byte(hash as big-endian fr.Element)
//
// Zero-subtree hashes are not stored; they are recomputed on load.

// Save writes the census tree to w in a deterministic binary format.
func (t *Tree) Save(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint32(t.depth)); err != nil {
		return fmt.Errorf("write depth: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(t.numLeaves)); err != nil {
		return fmt.Errorf("write leaf count: %w", err)
	}

	for lvl := 0; lvl <= t.depth; lvl++ {
		m := t.levels[lvl]
		if err := binary.Write(w, binary.BigEndian, uint32(len(m))); err != nil {
			return fmt.Errorf("write level %d count: %w", lvl, err)
		}

		indices := make([]int, 0, len(m))
		for idx := range m {
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		for _, idx := range indices {
			if err := binary.Write(w, binary.BigEndian, uint32(idx)); err != nil {
				return fmt.Errorf("write level %d index %d: %w", lvl, idx, err)
			}
			var elem fr.Element
			elem.SetBigInt(m[idx])
			b := elem.Bytes()
			if _, err := w.Write(b[:]); err != nil {
				return fmt.Errorf("write level %d hash %d: %w", lvl, idx, err)
			}
		}
	}

	return nil
}

// Load reads a census tree from r that was written by Save.
func Load(r io.Reader) (*Tree, error) {
	var depth, numLeaves uint32
	if err := binary.Read(r, binary.BigEndian, &depth); err != nil {
		return nil, fmt.Errorf("read depth: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &numLeaves); err != nil {
		return nil, fmt.Errorf("read leaf count: %w", err)
	}

	t, err := NewTree(int(depth))
	if err != nil {
		return nil, err
	}
	t.numLeaves = int(numLeaves)

	var hashBuf [fr.Bytes]byte
	for lvl := 0; lvl <= int(depth); lvl++ {
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return nil, fmt.Errorf("read level %d count: %w", lvl, err)
		}
		for j := 0; j < int(count); j++ {
			var idx uint32
			if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
				return nil, fmt.Errorf("read level %d index: %w", lvl, err)
			}
			if _, err := io.ReadFull(r, hashBuf[:]); err != nil {
				return nil, fmt.Errorf("read level %d hash: %w", lvl, err)
			}
			var elem fr.Element
			if err := elem.SetBytesCanonical(hashBuf[:]); err != nil {
				return nil, fmt.Errorf("level %d entry %d: %w", lvl, idx, err)
			}
			v := new(big.Int)
			elem.BigInt(v)
			t.levels[lvl][int(idx)] = v
		}
	}

	return t, nil
}
