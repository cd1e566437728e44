package main

import (
	"fmt"
	"strings"

	marionette "github.com/puppetwire/marionette"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of marionette",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marionette version %s\n", strings.TrimSpace(marionette.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
