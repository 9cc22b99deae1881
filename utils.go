package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

func writeU32LE(w *bufio.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64LE(w *bufio.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// symbolLabel renders a byte for the table dump: printable ASCII as a
// quoted char, anything else as an escape.
func symbolLabel(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return strconv.QuoteRune(rune(b))
	}
	return fmt.Sprintf("'\\x%02x'", b)
}

// ratio is compressed size as a percentage of the original.
func ratio(compressed, original int64) float64 {
	if original == 0 {
		return 0
	}
	return 100 * float64(compressed) / float64(original)
}

// printTable dumps the header summary and code table, one symbol per line.
func printTable(w io.Writer, st *Stats) {
	form := "narrow"
	if st.Wide {
		form = "wide"
	}
	fmt.Fprintf(w, "Header - entries: %d, padding: %d, form: %s\n", len(st.table), st.Padding, form)
	for _, e := range st.table {
		fmt.Fprintf(w, "  %-7s 0x%02x  len %2d  %s\n", symbolLabel(e.symbol), e.symbol, e.code.length, e.code)
	}
}
