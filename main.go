package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type options struct {
	command string
	input   string
	output  string
	verbose bool
}

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	prog := "huff"
	if len(args) > 0 {
		prog = filepath.Base(args[0])
	}
	if len(args) <= 1 {
		printUsage(stdout, prog)
		return 0
	}
	for _, a := range args[1:] {
		if a == "-h" || a == "--help" {
			printUsage(stdout, prog)
			return 0
		}
	}

	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			printUsage(stderr, prog)
		}
		return 1
	}

	switch opts.command {
	case "encode":
		st, err := EncodeFile(opts.input, opts.output)
		if err != nil {
			fmt.Fprintln(stderr, "encode error:", err)
			return 1
		}
		if opts.verbose {
			printTable(stdout, st)
		}
		fmt.Fprintf(stdout, "Encoded %s (%d bytes) → %s (%d bytes, %.1f%%)\n",
			opts.input, st.InputBytes, opts.output, st.OutputBytes, ratio(st.OutputBytes, st.InputBytes))
	case "decode":
		st, err := DecodeFile(opts.input, opts.output)
		if err != nil {
			fmt.Fprintln(stderr, "decode error:", err)
			return 1
		}
		if opts.verbose {
			printTable(stdout, st)
		}
		fmt.Fprintf(stdout, "Decoded %s (%d bytes) → %s (%d bytes)\n",
			opts.input, st.InputBytes, opts.output, st.OutputBytes)
	case "compare":
		data, err := os.ReadFile(opts.input)
		if err != nil {
			fmt.Fprintln(stderr, "compare error:", err)
			return 1
		}
		rows, err := compareCodecs(data)
		if err != nil {
			fmt.Fprintln(stderr, "compare error:", err)
			return 1
		}
		printComparison(stdout, opts.input, len(data), rows)
	}
	return 0
}

// parseArgs reads `<command> <input> [-o output] [-v]`. encode and decode
// need -o; compare takes no output.
func parseArgs(args []string) (options, error) {
	if len(args) < 3 {
		return options{}, errors.Wrap(errUsage, "wrong number of arguments")
	}
	opts := options{command: args[1], input: args[2]}
	switch opts.command {
	case "encode", "decode", "compare":
	default:
		return options{}, errors.Wrapf(errUsage, "unknown command %q", opts.command)
	}

	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "-o", "--output":
			if i+1 >= len(rest) {
				return options{}, errors.Errorf("%s needs a file name", rest[i])
			}
			opts.output = rest[i+1]
			i++
		case "-v", "--verbose":
			opts.verbose = true
		default:
			return options{}, errors.Wrapf(errUsage, "unexpected argument %q", rest[i])
		}
	}

	if opts.command != "compare" && opts.output == "" {
		return options{}, errors.Errorf("missing -o option. Usage: %s <command> <input_file> -o <output_file>", filepath.Base(args[0]))
	}
	return opts, nil
}

func printUsage(w io.Writer, prog string) {
	fmt.Fprintf(w, "Usage: %s <command> <input_file> [options]\n", prog)
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  encode    Encode a file using Huffman compression")
	fmt.Fprintln(w, "  decode    Decode a Huffman-encoded file")
	fmt.Fprintln(w, "  compare   Compare compressed sizes against huff0 and zstd")
	fmt.Fprintln(w, "\nOptions:")
	fmt.Fprintln(w, "  -o, --output FILE    Output file (required for encode/decode)")
	fmt.Fprintln(w, "  -h, --help           Show this help message")
	fmt.Fprintln(w, "  -v, --verbose        Print the code table")
	fmt.Fprintln(w, "\nExamples:")
	fmt.Fprintf(w, "  %s encode test.txt -o compressed.huf\n", prog)
	fmt.Fprintf(w, "  %s decode compressed.huf -o restored.txt\n", prog)
	fmt.Fprintf(w, "  %s compare test.txt\n", prog)
}
