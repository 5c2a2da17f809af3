package main

import (
	"fmt"
	"os"

	"github.com/offsetgraph/zerocopy/examples/graph"
	"github.com/offsetgraph/zerocopy/verify"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Validate a buffer's framing header and structural invariants",
		Long: `The verify command runs verify.Deserialize without building a Go value,
reporting the framing header and root offset on success, and a non-zero
exit with a descriptive error on any bounds, alignment, or checksum
violation.

Example:
  graphtool verify out.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}
}

func runVerify(args []string) error {
	path := args[0]
	mode := buildMode()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	root, err := verify.Deserialize[graph.Node](data, mode)
	if err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":        path,
			"valid":       true,
			"rootOffset":  root.Offset,
			"fingerprint": fmt.Sprintf("%016x", root.Header.Fingerprint),
			"checksum":    fmt.Sprintf("%016x", root.Header.Checksum),
		})
	}

	printInfo("%s: ok\n", path)
	printInfo("root offset: %d\n", root.Offset)
	printInfo("fingerprint: %016x\n", root.Header.Fingerprint)
	printInfo("checksum:    %016x\n", root.Header.Checksum)
	return nil
}
