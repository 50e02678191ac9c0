// Command spanz runs a simulated request workload through a span registry
// and exports the resulting traces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spanz",
		Short:         "In-process span registry tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newDemoCommand())
	return cmd
}
