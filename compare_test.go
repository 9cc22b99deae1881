package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareCodecs(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{name: "short_text", data: []byte("hello, world\n")},
		{name: "multi_block_text", data: []byte(randomText(300000, 8))},
		{name: "run", data: bytes.Repeat([]byte{'x'}, 200000)},
		{name: "random", data: makeTestData(150000, 2)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := compareCodecs(tc.data)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			require.Equal(t, "huff", rows[0].name)
			require.Equal(t, "huff0-1x", rows[1].name)
			require.Equal(t, "zstd", rows[2].name)

			want, err := Encode(tc.data)
			require.NoError(t, err)
			require.Equal(t, len(want), rows[0].size)
			for _, r := range rows {
				require.Positive(t, r.size, r.name)
			}
		})
	}
}

func TestHuff0_BlockFraming(t *testing.T) {
	data := append(bytes.Repeat([]byte{'z'}, 600000), []byte(randomText(140000, 6))...)
	comp, note, err := compressHuff0(data)
	require.NoError(t, err)
	require.Contains(t, note, "rle")

	got, err := decompressHuff0(comp, len(data))
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, err = decompressHuff0(comp[:3], len(data))
	require.Error(t, err)
	_, err = decompressHuff0([]byte{9, 0, 0, 0, 0}, 0)
	require.Error(t, err)
}

func TestPrintComparison(t *testing.T) {
	rows, err := compareCodecs([]byte(randomText(4000, 12)))
	require.NoError(t, err)

	var sb strings.Builder
	printComparison(&sb, "in.txt", 4000, rows)
	out := sb.String()
	require.True(t, strings.HasPrefix(out, "in.txt: 4000 bytes\n"))
	require.Equal(t, len(rows)+2, strings.Count(out, "\n"))
	t.Log("\n" + out)
}

func TestCompareSummary(t *testing.T) {
	if testing.Short() {
		t.Skip("summary is slow")
	}
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{name: "text_64k", data: []byte(randomText(64<<10, 1))},
		{name: "text_1m", data: []byte(randomText(1<<20, 2))},
		{name: "random_256k", data: makeTestData(256<<10, 3)},
	} {
		rows, err := compareCodecs(tc.data)
		require.NoError(t, err)
		var sb strings.Builder
		printComparison(&sb, tc.name, len(tc.data), rows)
		t.Log("\n" + sb.String())
	}
}

func BenchmarkEncode(b *testing.B) {
	data := []byte(randomText(1<<20, 1))
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	data := []byte(randomText(1<<20, 1))
	comp, err := Encode(data)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(comp); err != nil {
			b.Fatal(err)
		}
	}
}
