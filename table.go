package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// maxCodeLength is the longest code the wide container form can carry.
// Inputs are capped at 2^32-1 bytes, which keeps Huffman depth well below it.
const maxCodeLength = 64

// code is a right-aligned bit pattern; the most significant of its length
// bits is written first.
type code struct {
	bits   uint64
	length uint8
}

func (c code) String() string {
	return fmt.Sprintf("%0*b", int(c.length), c.bits)
}

// entry pairs a symbol with its code.
type entry struct {
	symbol byte
	code   code
}

// codeTable maps byte values to codes. It is built once per encode and
// only read afterwards.
type codeTable struct {
	codes   [alphabetSize]code
	present [alphabetSize]bool
	n       int
}

// buildCodeTable walks the tree depth first; a left edge appends 0 and a
// right edge appends 1.
func buildCodeTable(root *node) *codeTable {
	t := &codeTable{}
	if root.isLeaf() {
		t.set(root.symbol, code{bits: 0, length: 1})
		return t
	}

	var walk func(n *node, c code)
	walk = func(n *node, c code) {
		if n.isLeaf() {
			t.set(n.symbol, c)
			return
		}
		if c.length == maxCodeLength {
			panic(fmt.Sprintf("huffman: code longer than %d bits", maxCodeLength))
		}
		walk(n.left, code{bits: c.bits << 1, length: c.length + 1})
		walk(n.right, code{bits: c.bits<<1 | 1, length: c.length + 1})
	}
	walk(root, code{})
	return t
}

func (t *codeTable) set(s byte, c code) {
	if !t.present[s] {
		t.n++
	}
	t.codes[s] = c
	t.present[s] = true
}

// lookup returns the code of s. The table is derived from the same input
// it encodes, so a miss is a bug.
func (t *codeTable) lookup(s byte) code {
	if !t.present[s] {
		panic(fmt.Sprintf("huffman: byte 0x%02x missing from code table", s))
	}
	return t.codes[s]
}

func (t *codeTable) len() int { return t.n }

func (t *codeTable) maxLength() uint8 {
	var m uint8
	for s, ok := range t.present {
		if ok && t.codes[s].length > m {
			m = t.codes[s].length
		}
	}
	return m
}

// entries lists the table in ascending symbol order.
func (t *codeTable) entries() []entry {
	out := make([]entry, 0, t.n)
	for s, ok := range t.present {
		if ok {
			out = append(out, entry{symbol: byte(s), code: t.codes[s]})
		}
	}
	return out
}

// encodedBits is the length of the bit stream produced for ft.
func (t *codeTable) encodedBits(ft *frequencyTable) uint64 {
	var total uint64
	for _, s := range ft.symbols() {
		c, _ := ft.count(s)
		total += uint64(c) * uint64(t.lookup(s).length)
	}
	return total
}

// decodeTable maps a (right-aligned pattern, length) pair back to its symbol.
type decodeTable struct {
	symbols   map[code]byte
	maxLength uint8
}

// buildDecodeTable inverts the header entries. Prefix-freedom is trusted,
// not re-checked; two entries with the same code are rejected.
func buildDecodeTable(entries []entry) (*decodeTable, error) {
	dt := &decodeTable{symbols: make(map[code]byte, len(entries))}
	for _, e := range entries {
		if prev, ok := dt.symbols[e.code]; ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "code %s used by 0x%02x and 0x%02x", e.code, prev, e.symbol)
		}
		dt.symbols[e.code] = e.symbol
		if e.code.length > dt.maxLength {
			dt.maxLength = e.code.length
		}
	}
	return dt, nil
}

func (dt *decodeTable) lookup(c code) (byte, bool) {
	s, ok := dt.symbols[c]
	return s, ok
}
