package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
)

const (
	HashSize = sha256.Size

	nodePrefix = 0x01
)

var (
	ErrInvalidHashLen = errors.New("merkle: invalid hash length")
	ErrInvalidIndex   = errors.New("merkle: leaf index out of range")
	ErrEmptyTree      = errors.New("merkle: tree has no leaves")
)

// nodeHash combines two children with domain separation from leaf hashes.
func nodeHash(left, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Root computes the tree root over the given leaf hashes. Odd levels
// duplicate their last node, so the last leaf of an odd-sized level pairs
// with itself.
func Root(leaves [][]byte) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level, err := copyLevel(leaves)
	if err != nil {
		return nil, err
	}
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0], nil
}

// InclusionPath returns the sibling hashes for the leaf at index, ordered
// leaf-to-root. The index bit pattern at each level tells a verifier which
// side the sibling sits on.
func InclusionPath(leaves [][]byte, index int) ([][]byte, error) {
	if index < 0 || index >= len(leaves) {
		return nil, ErrInvalidIndex
	}
	level, err := copyLevel(leaves)
	if err != nil {
		return nil, err
	}

	var path [][]byte
	pos := index
	for len(level) > 1 {
		sibling := pos ^ 1
		if sibling >= len(level) {
			sibling = pos
		}
		path = append(path, level[sibling])
		level = nextLevel(level)
		pos >>= 1
	}
	return path, nil
}

// VerifyInclusion recomputes the root from a leaf digest and a sibling
// path, deciding left/right at each level from the bit pattern of index,
// and compares it to root.
func VerifyInclusion(leaf []byte, index int64, path [][]byte, root []byte) (bool, error) {
	if len(leaf) != HashSize || len(root) != HashSize {
		return false, ErrInvalidHashLen
	}
	if index < 0 {
		return false, ErrInvalidIndex
	}
	current := leaf
	idx := index
	for _, sibling := range path {
		if len(sibling) != HashSize {
			return false, ErrInvalidHashLen
		}
		if idx&1 == 0 {
			current = nodeHash(current, sibling)
		} else {
			current = nodeHash(sibling, current)
		}
		idx >>= 1
	}
	if idx != 0 {
		return false, ErrInvalidIndex
	}
	return bytes.Equal(current, root), nil
}

func nextLevel(level [][]byte) [][]byte {
	next := make([][]byte, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		left := level[i]
		right := left
		if i+1 < len(level) {
			right = level[i+1]
		}
		next = append(next, nodeHash(left, right))
	}
	return next
}

func copyLevel(leaves [][]byte) ([][]byte, error) {
	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		if len(leaf) != HashSize {
			return nil, ErrInvalidHashLen
		}
		level[i] = leaf
	}
	return level, nil
}
