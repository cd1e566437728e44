package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/puppetwire/marionette/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Check a scenario file for consistency",
	Long: `Parses a scenario file and checks that every step decodes, every
action schema compiles, and every referenced action name is defined by
an earlier step.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Scenario is valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	defined := make(map[string]bool)
	for i, step := range sc.Steps {
		switch s := step.(type) {
		case scenario.RegisterStep:
			for _, def := range s.Actions {
				if def.Name == "" {
					return fmt.Errorf("step %d: action with no name", i+1)
				}
				if _, err := def.Action(); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				defined[def.Name] = true
			}
		case scenario.UnregisterStep:
			for _, name := range s.Actions {
				delete(defined, name)
			}
		case scenario.InvokeStep:
			// Steps expecting a rejection may reference anything.
			if !defined[s.Name] && s.Expect != "rejected" {
				return fmt.Errorf("step %d: invokes %q before it is registered", i+1, s.Name)
			}
		case scenario.ForceStep:
			for _, name := range s.Actions {
				if !defined[name] {
					return fmt.Errorf("step %d: forces %q before it is registered", i+1, name)
				}
			}
		}
	}
	return nil
}
