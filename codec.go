// huff is a static Huffman codec for files. It counts byte frequencies,
// builds a prefix code with Huffman's greedy merge and writes a container
// that embeds the code table, so decoding needs nothing but the file.

package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyInput is returned by the tree builder for a table with no
	// symbols. Encode turns an empty input into an empty container instead.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidFormat reports a bad magic or a malformed/truncated header.
	ErrInvalidFormat = errors.New("invalid huffman file")
	// ErrCorruptStream reports bits that do not resolve to a symbol.
	ErrCorruptStream = errors.New("corrupt or truncated bit stream")
	// ErrInputTooLarge reports an input whose byte counts do not fit in u32.
	ErrInputTooLarge = errors.New("input too large")

	errInputChanged = errors.New("input changed between passes")
)

const ioBufferSize = 64 * 1024

// Stats describes one encode or decode run.
type Stats struct {
	InputBytes  int64
	OutputBytes int64
	Padding     uint8
	Wide        bool
	table       []entry
}

// EncodeTo compresses in into out, starting at the current offset of out.
// in is read twice from its start: once to count bytes and once to emit
// codes. The padding field of the header is patched through out once the
// bit stream is flushed.
func EncodeTo(out io.WriteSeeker, in io.ReadSeeker) (*Stats, error) {
	start, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "seek output")
	}
	st, err := encodeStream(out, in)
	if err != nil {
		return nil, err
	}
	if err := patchPadding(out, start, st.Padding); err != nil {
		return nil, err
	}
	return st, nil
}

// Encode compresses src in memory.
func Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	st, err := encodeStream(&buf, bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	out := buf.Bytes()
	out[paddingOffset] = st.Padding
	return out, nil
}

// EncodeFile compresses inPath into outPath. outPath only appears once it
// is complete.
func EncodeFile(inPath, outPath string) (*Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer in.Close()

	var st *Stats
	err = writeFileAtomic(outPath, func(f *os.File) error {
		var err error
		st, err = EncodeTo(f, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// encodeStream writes the header with a zero padding followed by the bit
// stream, and returns the real padding in the stats.
func encodeStream(w io.Writer, in io.ReadSeeker) (*Stats, error) {
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek input")
	}
	ft, err := countFrequencies(in)
	if err != nil {
		return nil, err
	}

	st := &Stats{InputBytes: int64(ft.total())}
	if ft.len() == 0 {
		h := &header{}
		if err := writeHeader(w, h); err != nil {
			return nil, err
		}
		st.OutputBytes = h.size()
		return st, nil
	}

	root, err := buildTree(ft)
	if err != nil {
		return nil, err
	}
	table := buildCodeTable(root)
	h := newHeader(table)
	if err := writeHeader(w, h); err != nil {
		return nil, err
	}

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind input")
	}
	bw := newBitWriter(w)
	r := bufio.NewReaderSize(in, ioBufferSize)
	var n uint64
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read input")
		}
		if _, ok := ft.count(b); !ok {
			return nil, errors.Wrapf(errInputChanged, "byte 0x%02x was not counted", b)
		}
		if err := bw.writeCode(table.lookup(b)); err != nil {
			return nil, err
		}
		n++
	}
	if n != ft.total() {
		return nil, errors.Wrapf(errInputChanged, "counted %d bytes, encoded %d", ft.total(), n)
	}

	bits := bw.totalBits()
	padding, err := bw.flush()
	if err != nil {
		return nil, err
	}

	st.Padding = padding
	st.Wide = h.wide
	st.table = h.entries
	st.OutputBytes = h.size() + int64((bits+7)/8)
	return st, nil
}

// DecodeFrom reads a container from r and writes the original bytes to w.
func DecodeFrom(r io.Reader, w io.Writer) (*Stats, error) {
	br := bufio.NewReaderSize(r, ioBufferSize)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriterSize(w, ioBufferSize)
	streamBytes, written, err := decodeStream(br, bw, h)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, errors.Wrap(err, "write output")
	}

	return &Stats{
		InputBytes:  h.size() + streamBytes,
		OutputBytes: written,
		Padding:     h.padding,
		Wide:        h.wide,
		table:       h.entries,
	}, nil
}

// Decode decompresses data in memory.
func Decode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := DecodeFrom(bytes.NewReader(data), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFile decompresses inPath into outPath. On failure outPath is left
// untouched and no partial output remains.
func DecodeFile(inPath, outPath string) (*Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer in.Close()

	var st *Stats
	err = writeFileAtomic(outPath, func(f *os.File) error {
		var err error
		st, err = DecodeFrom(in, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// decodeStream feeds the bit stream through the decode table one bit at a
// time. It returns the number of stream bytes read and bytes written.
func decodeStream(r io.ByteReader, w io.ByteWriter, h *header) (int64, int64, error) {
	if len(h.entries) == 0 {
		_, err := r.ReadByte()
		if err == nil {
			return 0, 0, errors.Wrap(ErrCorruptStream, "data after empty code table")
		}
		if err != io.EOF {
			return 0, 0, errors.Wrap(err, "read bit stream")
		}
		return 0, 0, nil
	}

	dt, err := buildDecodeTable(h.entries)
	if err != nil {
		return 0, 0, err
	}
	br, err := newBitReader(r, h.padding)
	if err != nil {
		return 0, 0, err
	}
	if br.consumed == 0 {
		return 0, 0, errors.Wrap(ErrCorruptStream, "missing bit stream")
	}

	var acc code
	var written int64
	for bit, err := range br.bits() {
		if err != nil {
			return br.consumed, written, err
		}
		acc.bits <<= 1
		if bit {
			acc.bits |= 1
		}
		acc.length++

		if s, ok := dt.lookup(acc); ok {
			if err := w.WriteByte(s); err != nil {
				return br.consumed, written, errors.Wrap(err, "write output")
			}
			written++
			acc = code{}
			continue
		}
		if acc.length >= dt.maxLength {
			return br.consumed, written, errors.Wrapf(ErrCorruptStream, "no code matches %s", acc)
		}
	}
	if acc.length > 0 {
		return br.consumed, written, errors.Wrapf(ErrCorruptStream, "%d unresolved trailing bits", acc.length)
	}
	return br.consumed, written, nil
}

// writeFileAtomic runs fill against a temporary file next to path, syncs
// it and renames it over path. The temporary file is removed on error.
func writeFileAtomic(path string, fill func(f *os.File) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = f.Chmod(0o644); err != nil {
		return errors.Wrap(err, "chmod output")
	}
	if err = fill(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return errors.Wrap(err, "sync output")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return errors.Wrap(err, "publish output")
	}
	return nil
}
