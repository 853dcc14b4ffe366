package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the weld version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(versionString)
		return nil
	},
}
