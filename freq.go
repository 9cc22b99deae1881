package main

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// alphabetSize is the number of distinct byte values.
const alphabetSize = 256

// maxInputBytes caps the input so every count fits the u32 weights the
// format was designed around.
var maxInputBytes uint64 = math.MaxUint32

// frequencyTable counts occurrences of every byte value in an input.
// A byte with a zero count is treated as absent.
type frequencyTable struct {
	counts  [alphabetSize]uint32
	entries int
	sum     uint64
}

// countFrequencies reads r to EOF and counts every byte value.
func countFrequencies(r io.Reader) (*frequencyTable, error) {
	ft := &frequencyTable{}
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ft.sum+uint64(n) > maxInputBytes {
				return nil, errors.Wrapf(ErrInputTooLarge, "more than %d bytes", maxInputBytes)
			}
			for _, b := range buf[:n] {
				if ft.counts[b] == 0 {
					ft.entries++
				}
				ft.counts[b]++
			}
			ft.sum += uint64(n)
		}
		if err == io.EOF {
			return ft, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "count frequencies")
		}
	}
}

// count returns the number of occurrences of b and whether b occurred at all.
func (ft *frequencyTable) count(b byte) (uint32, bool) {
	c := ft.counts[b]
	return c, c > 0
}

// len returns the number of distinct byte values present.
func (ft *frequencyTable) len() int { return ft.entries }

// total returns the number of bytes counted.
func (ft *frequencyTable) total() uint64 { return ft.sum }

// symbols returns the present byte values in ascending order.
func (ft *frequencyTable) symbols() []byte {
	out := make([]byte, 0, ft.entries)
	for s, c := range ft.counts {
		if c > 0 {
			out = append(out, byte(s))
		}
	}
	return out
}
