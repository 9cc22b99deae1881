package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Container layout (little-endian):
//
//	magic[4]   "HUFF" (narrow) or "HUFW" (wide)
//	count      u32, number of table entries
//	padding    u8, unused low bits in the last stream byte (0..7)
//	entries    count times (symbol u8, pattern, length u8)
//	stream     packed codes, msb-first
//
// The narrow form stores the pattern in one byte and is used while every
// code fits in 8 bits. The wide form stores it as a u64. In both forms the
// pattern is left-aligned in its field.
const (
	magicNarrow = "HUFF"
	magicWide   = "HUFW"

	paddingOffset   = 8
	fixedHeaderSize = 9

	narrowEntrySize = 3
	wideEntrySize   = 10
	narrowMaxLength = 8

	maxEntries = alphabetSize
)

type header struct {
	wide    bool
	padding uint8
	entries []entry
}

// newHeader picks the narrow form whenever the table allows it.
func newHeader(t *codeTable) *header {
	return &header{
		wide:    t.maxLength() > narrowMaxLength,
		entries: t.entries(),
	}
}

func (h *header) magic() string {
	if h.wide {
		return magicWide
	}
	return magicNarrow
}

func (h *header) size() int64 {
	per := narrowEntrySize
	if h.wide {
		per = wideEntrySize
	}
	return int64(fixedHeaderSize + per*len(h.entries))
}

func (h *header) maxLength() uint8 {
	if h.wide {
		return maxCodeLength
	}
	return narrowMaxLength
}

// writeHeader writes h, padding included. The encoder writes it first with
// a zero padding and patches the real value afterwards.
func writeHeader(w io.Writer, h *header) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(h.magic()); err != nil {
		return errors.Wrap(err, "write magic")
	}
	if err := writeU32LE(bw, uint32(len(h.entries))); err != nil {
		return errors.Wrap(err, "write entry count")
	}
	if err := bw.WriteByte(h.padding); err != nil {
		return errors.Wrap(err, "write padding")
	}
	for _, e := range h.entries {
		if e.code.length == 0 || e.code.length > h.maxLength() {
			panic("huffman: code length does not fit header form")
		}
		if err := bw.WriteByte(e.symbol); err != nil {
			return errors.Wrap(err, "write entry")
		}
		if h.wide {
			err := writeU64LE(bw, e.code.bits<<(64-e.code.length))
			if err != nil {
				return errors.Wrap(err, "write entry")
			}
		} else {
			if err := bw.WriteByte(byte(e.code.bits << (8 - e.code.length))); err != nil {
				return errors.Wrap(err, "write entry")
			}
		}
		if err := bw.WriteByte(e.code.length); err != nil {
			return errors.Wrap(err, "write entry")
		}
	}
	return errors.Wrap(bw.Flush(), "flush header")
}

// patchPadding overwrites the padding field of a header written at offset
// start of ws and moves back to the end.
func patchPadding(ws io.WriteSeeker, start int64, padding uint8) error {
	if _, err := ws.Seek(start+paddingOffset, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek to padding")
	}
	if _, err := ws.Write([]byte{padding}); err != nil {
		return errors.Wrap(err, "patch padding")
	}
	if _, err := ws.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "seek to end")
	}
	return nil
}

// readHeader parses and validates a header. A short read is reported as
// ErrInvalidFormat.
func readHeader(r io.Reader) (*header, error) {
	var fixed [fixedHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, headerReadError(err, "fixed header")
	}

	h := &header{}
	switch magic := fixed[:4]; {
	case bytes.Equal(magic, []byte(magicNarrow)):
	case bytes.Equal(magic, []byte(magicWide)):
		h.wide = true
	default:
		return nil, errors.Wrapf(ErrInvalidFormat, "bad magic %q", magic)
	}

	count := binary.LittleEndian.Uint32(fixed[4:8])
	if count > maxEntries {
		return nil, errors.Wrapf(ErrInvalidFormat, "entry count %d exceeds %d", count, maxEntries)
	}
	h.padding = fixed[paddingOffset]
	if h.padding > 7 {
		return nil, errors.Wrapf(ErrInvalidFormat, "padding %d out of range", h.padding)
	}
	if count == 0 && h.padding != 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "padding set on empty stream")
	}

	per := narrowEntrySize
	if h.wide {
		per = wideEntrySize
	}
	raw := make([]byte, int(count)*per)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, headerReadError(err, "code table")
	}

	h.entries = make([]entry, 0, count)
	for i := 0; i < int(count); i++ {
		rec := raw[i*per : (i+1)*per]
		length := rec[per-1]
		if length == 0 || length > h.maxLength() {
			return nil, errors.Wrapf(ErrInvalidFormat, "entry %d: code length %d", i, length)
		}
		var bits uint64
		if h.wide {
			bits = binary.LittleEndian.Uint64(rec[1:9]) >> (64 - length)
		} else {
			bits = uint64(rec[1] >> (8 - length))
		}
		h.entries = append(h.entries, entry{symbol: rec[0], code: code{bits: bits, length: length}})
	}
	return h, nil
}

func headerReadError(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrInvalidFormat, "truncated %s", what)
	}
	return errors.Wrapf(err, "read %s", what)
}
