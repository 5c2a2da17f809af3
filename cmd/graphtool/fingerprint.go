package main

import (
	"fmt"
	"reflect"

	"github.com/offsetgraph/zerocopy/examples/graph"
	"github.com/offsetgraph/zerocopy/fingerprint"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newFingerprintCmd())
}

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the structural type fingerprint of the demo graph.Node type",
		Long: `The fingerprint command computes fingerprint.OfType(graph.Node) the same
way the framing header does when ModeWithVersion is set, useful for
comparing against a header produced by a different build of this type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFingerprint()
		},
	}
}

func runFingerprint() error {
	var n graph.Node
	fp := fingerprint.OfType(reflect.TypeOf(n))
	if jsonOut {
		return printJSON(map[string]interface{}{"fingerprint": fmt.Sprintf("%016x", fp)})
	}
	printInfo("%016x\n", fp)
	return nil
}
