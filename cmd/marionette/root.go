package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marionette",
	Short: "Marionette mediates a game and an external controlling agent",
	Long: `Marionette hosts the action protocol between a game and an external
controlling agent: the game registers actions it accepts, the agent
invokes them over JSON text frames, and the host can force a choice.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "marionette.yaml", "Path to the configuration file")
}
