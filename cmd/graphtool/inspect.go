package main

import (
	"fmt"
	"os"

	"github.com/offsetgraph/zerocopy/engine"
	"github.com/offsetgraph/zerocopy/examples/graph"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate a buffer, then print its size and BFS order",
		Long: `The inspect command runs the full validation pass (verify.Deserialize),
decodes the graph, and prints the buffer's path and size and the
breadth-first visit order starting from the root node. It does not print
the framing header fields; use the verify command for those.

Example:
  graphtool inspect out.bin
  graphtool inspect --unchecked out.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
}

func runInspect(args []string) error {
	path := args[0]
	mode := buildMode()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	out, err := engine.Deserialize[graph.Node](data, mode)
	if err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}
	order := graph.BFS(&out)

	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":  path,
			"bytes": len(data),
			"bfs":   order,
		})
	}

	printInfo("buffer:    %s (%d bytes)\n", path, len(data))
	printInfo("bfs order: %v\n", order)
	return nil
}
