package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/huff0"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// compareRow is one codec's result on the same input.
type compareRow struct {
	name   string
	size   int
	encode time.Duration
	decode time.Duration
	note   string
}

type codecFuncs struct {
	name   string
	encode func([]byte) ([]byte, string, error)
	decode func([]byte, int) ([]byte, error)
}

// compareCodecs compresses data with this codec, huff0 and zstd, checks
// that each one round-trips and reports sizes and timings.
func compareCodecs(data []byte) ([]compareRow, error) {
	codecs := []codecFuncs{
		{
			name: "huff",
			encode: func(src []byte) ([]byte, string, error) {
				out, err := Encode(src)
				return out, "", err
			},
			decode: func(src []byte, _ int) ([]byte, error) { return Decode(src) },
		},
		{name: "huff0-1x", encode: compressHuff0, decode: decompressHuff0},
		{
			name: "zstd",
			encode: func(src []byte) ([]byte, string, error) {
				enc := mustNewZstdEncoder()
				defer enc.Close()
				return enc.EncodeAll(src, nil), "", nil
			},
			decode: func(src []byte, _ int) ([]byte, error) {
				dec := mustNewZstdDecoder()
				defer dec.Close()
				return dec.DecodeAll(src, nil)
			},
		},
	}

	rows := make([]compareRow, 0, len(codecs))
	for _, c := range codecs {
		start := time.Now()
		enc, note, err := c.encode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "%s encode", c.name)
		}
		encTime := time.Since(start)

		start = time.Now()
		dec, err := c.decode(enc, len(data))
		if err != nil {
			return nil, errors.Wrapf(err, "%s decode", c.name)
		}
		decTime := time.Since(start)
		if !bytes.Equal(dec, data) {
			return nil, errors.Errorf("%s: round trip mismatch", c.name)
		}

		rows = append(rows, compareRow{name: c.name, size: len(enc), encode: encTime, decode: decTime, note: note})
	}
	return rows, nil
}

func printComparison(w io.Writer, input string, original int, rows []compareRow) {
	fmt.Fprintf(w, "%s: %d bytes\n", input, original)
	fmt.Fprintf(w, "%-10s %12s %8s %12s %12s  %s\n", "codec", "size", "ratio", "encode", "decode", "note")
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s %12d %7.1f%% %12s %12s  %s\n",
			r.name, r.size, ratio(int64(r.size), int64(original)), r.encode, r.decode, r.note)
	}
}

// huff0 works on blocks of at most huff0.BlockSizeMax bytes. Each block is
// framed as a one-byte kind followed by a u32 LE length and the payload.
const (
	huff0BlockCompressed = 0
	huff0BlockRaw        = 1
	huff0BlockRLE        = 2
)

func compressHuff0(src []byte) ([]byte, string, error) {
	var out bytes.Buffer
	var raw, rle int
	s := &huff0.Scratch{Reuse: huff0.ReusePolicyNone}
	for len(src) > 0 {
		n := min(len(src), huff0.BlockSizeMax)
		block := src[:n]
		src = src[n:]

		comp, _, err := huff0.Compress1X(block, s)
		switch {
		case err == nil:
			writeHuff0Block(&out, huff0BlockCompressed, comp)
		case errors.Is(err, huff0.ErrIncompressible):
			writeHuff0Block(&out, huff0BlockRaw, block)
			raw++
		case errors.Is(err, huff0.ErrUseRLE):
			// payload is the repeated byte; the length field is the run.
			out.WriteByte(huff0BlockRLE)
			out.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(block))))
			out.WriteByte(block[0])
			rle++
		default:
			return nil, "", err
		}
	}

	var note string
	if raw > 0 || rle > 0 {
		note = fmt.Sprintf("%d raw, %d rle blocks", raw, rle)
	}
	return out.Bytes(), note, nil
}

func decompressHuff0(src []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	for len(src) > 0 {
		if len(src) < 5 {
			return nil, errors.New("huff0: truncated block header")
		}
		kind := src[0]
		n := int(binary.LittleEndian.Uint32(src[1:5]))
		src = src[5:]

		switch kind {
		case huff0BlockRLE:
			if len(src) < 1 {
				return nil, errors.New("huff0: truncated rle block")
			}
			out = append(out, bytes.Repeat(src[:1], n)...)
			src = src[1:]
		case huff0BlockRaw, huff0BlockCompressed:
			if len(src) < n {
				return nil, errors.New("huff0: truncated block")
			}
			payload := src[:n]
			src = src[n:]
			if kind == huff0BlockRaw {
				out = append(out, payload...)
				continue
			}
			s, remain, err := huff0.ReadTable(payload, nil)
			if err != nil {
				return nil, err
			}
			dec, err := s.Decoder().Decompress1X(make([]byte, 0, huff0.BlockSizeMax), remain)
			if err != nil {
				return nil, err
			}
			out = append(out, dec...)
		default:
			return nil, errors.Errorf("huff0: unknown block kind %d", kind)
		}
	}
	return out, nil
}

func writeHuff0Block(out *bytes.Buffer, kind byte, payload []byte) {
	out.WriteByte(kind)
	out.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(payload))))
	out.Write(payload)
}

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}
