package main

import (
	"io"
	"iter"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

var errWriterFlushed = errors.New("bit writer already flushed")

// bitWriter packs codes msb-first into bytes. A sink that is not an
// io.ByteWriter gets completed bytes in buffered chunks, the rest at flush.
type bitWriter struct {
	out     io.Writer
	w       *bitio.Writer
	total   uint64
	flushed bool
}

func newBitWriter(out io.Writer) *bitWriter {
	return &bitWriter{out: out, w: bitio.NewWriter(out)}
}

// writeBit writes a single bit.
func (bw *bitWriter) writeBit(bit bool) error {
	if bw.flushed {
		return errWriterFlushed
	}
	if err := bw.w.WriteBool(bit); err != nil {
		return errors.Wrap(err, "write bit")
	}
	bw.total++
	return nil
}

// writeCode writes the length low bits of c.bits, most significant first.
func (bw *bitWriter) writeCode(c code) error {
	if bw.flushed {
		return errWriterFlushed
	}
	if err := bw.w.WriteBits(c.bits, c.length); err != nil {
		return errors.Wrap(err, "write code")
	}
	bw.total += uint64(c.length)
	return nil
}

// filled is the number of bits held in the current partial byte (0..7).
func (bw *bitWriter) filled() uint8 {
	return uint8(bw.total % 8)
}

func (bw *bitWriter) totalBits() uint64 {
	return bw.total
}

// flush zero-pads the last partial byte, pushes everything to the
// underlying writer and syncs it when it is a file. It returns the number
// of padding bits (0..7). The writer cannot be used afterwards.
func (bw *bitWriter) flush() (uint8, error) {
	if bw.flushed {
		return 0, errWriterFlushed
	}
	bw.flushed = true

	padding, err := bw.w.Align()
	if err != nil {
		return 0, errors.Wrap(err, "align bit stream")
	}
	if err := bw.w.Close(); err != nil {
		return 0, errors.Wrap(err, "flush bit stream")
	}
	if s, ok := bw.out.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return 0, errors.Wrap(err, "sync output")
		}
	}
	return padding, nil
}

// bitReader yields bits msb-first from a byte stream whose final byte
// carries padding low-order bits. It keeps one byte of look-ahead so it
// knows when it is inside the final byte.
type bitReader struct {
	r       io.ByteReader
	padding uint8

	cur, next       byte
	hasCur, hasNext bool
	bit             uint8 // next bit position in cur, 0 is the msb
	err             error

	consumed int64
}

func newBitReader(r io.ByteReader, padding uint8) (*bitReader, error) {
	br := &bitReader{r: r, padding: padding}
	var err error
	if br.cur, br.hasCur, err = br.fetch(); err != nil {
		return nil, err
	}
	if br.hasCur {
		if br.next, br.hasNext, err = br.fetch(); err != nil {
			return nil, err
		}
	}
	return br, nil
}

func (br *bitReader) fetch() (byte, bool, error) {
	b, err := br.r.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "read bit stream")
	}
	br.consumed++
	return b, true, nil
}

func (br *bitReader) advance() error {
	br.cur, br.hasCur = br.next, br.hasNext
	br.bit = 0
	if !br.hasCur {
		br.hasNext = false
		return nil
	}
	var err error
	br.next, br.hasNext, err = br.fetch()
	return err
}

// readBit returns the next payload bit, or io.EOF once the valid bits of
// the final byte are used up.
func (br *bitReader) readBit() (bool, error) {
	if br.err != nil {
		return false, br.err
	}
	if !br.hasCur {
		br.err = io.EOF
		return false, io.EOF
	}

	valid := uint8(8)
	if !br.hasNext {
		valid -= br.padding
	}
	if br.bit >= valid {
		br.hasCur = false
		br.err = io.EOF
		return false, io.EOF
	}

	bit := br.cur&(0x80>>br.bit) != 0
	br.bit++
	if br.bit == 8 {
		// a failed look-ahead surfaces on the next call
		if err := br.advance(); err != nil {
			br.err = err
		}
	}
	return bit, nil
}

// bits exposes readBit as a sequence. It stops silently at the end of the
// payload and yields the error once if the stream fails.
func (br *bitReader) bits() iter.Seq2[bool, error] {
	return func(yield func(bool, error) bool) {
		for {
			bit, err := br.readBit()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(false, err)
				return
			}
			if !yield(bit, nil) {
				return
			}
		}
	}
}
