// Command weld is a static ELF64 linker: it reads ET_REL object files
// and System-V ar archives and produces a minimal ET_EXEC executable,
// following the cobra-driven RootCmd/Execute() shape
// Manu343726-cucaracha's cmd/root.go establishes for multi-command CLIs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const versionString = "weld 0.1.0"

var rootCmd = &cobra.Command{
	Use:   "weld [FILE...]",
	Short: "A static ELF64 linker",
	Long: `weld links ET_REL object files and System-V ar archives into a
single statically-linked ET_EXEC executable.

Running weld with bare file arguments is shorthand for "weld link".`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runLink(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd, versionCmd)
}

// Execute runs the root command; main calls this once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
