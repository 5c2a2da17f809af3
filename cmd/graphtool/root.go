package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/offsetgraph/zerocopy/framing"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	bigEndian   bool
	noVersion   bool
	noIntegrity bool
	unchecked   bool
	deepCheck   bool
)

var rootCmd = &cobra.Command{
	Use:   "graphtool",
	Short: "Inspect and exercise zero-copy serialized graph buffers",
	Long: `graphtool builds, inspects, and validates the byte buffers produced by
the zero-copy engine package. It serializes the example cyclic graph type,
dumps framing headers, and checks a buffer's structural invariants without
ever copying its payload out.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&bigEndian, "big-endian", false, "Encode/decode using big-endian byte order")
	rootCmd.PersistentFlags().BoolVar(&noVersion, "no-version", false, "Omit the type fingerprint from the framing header")
	rootCmd.PersistentFlags().BoolVar(&noIntegrity, "no-integrity", false, "Omit the payload checksum from the framing header")
	rootCmd.PersistentFlags().BoolVar(&unchecked, "unchecked", false, "Skip structural validation on read (trust the buffer)")
	rootCmd.PersistentFlags().BoolVar(&deepCheck, "deep-check", false, "Revisit already-validated shared subtrees instead of short-circuiting")
}

// buildMode derives a framing.Mode from the global flags, used by every
// subcommand that serializes or validates a buffer.
func buildMode() framing.Mode {
	m := framing.Mode(0)
	if !noVersion {
		m |= framing.ModeWithVersion
	}
	if !noIntegrity {
		m |= framing.ModeWithIntegrity
	}
	if bigEndian {
		m |= framing.ModeBigEndian
	}
	if unchecked {
		m |= framing.ModeUnchecked
	}
	if deepCheck {
		m |= framing.ModeDeepCheck
	}
	return m
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func checkArgs(args []string, expected int, usage string) error {
	if len(args) != expected {
		return fmt.Errorf("expected %d argument(s), got %d\nUsage: %s", expected, len(args), usage)
	}
	return nil
}
