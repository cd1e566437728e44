package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/internal/presentation/tui"
	"github.com/puppetwire/marionette/internal/scenario"
)

var playCmd = &cobra.Command{
	Use:   "play <scenario.yaml>",
	Short: "Replay a scripted scenario",
	Long: `Replays a YAML scenario against a fresh session, printing every
frame and event. Useful for demoing the protocol and for checking a
game's action definitions against scripted agent behavior.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if err := runPlay(args[0], verbose); err != nil {
			fmt.Printf("Play failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().BoolP("verbose", "v", false, "Print raw frames for every step")
}

func runPlay(path string, verbose bool) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	tui.PrintBanner(marionette.Version)
	render := tui.NewRenderer()

	header := fmt.Sprintf("# %s\n", sc.Name)
	if sc.Game != "" {
		header += fmt.Sprintf("Game: **%s**\n", sc.Game)
	}
	if out, err := render(header); err == nil {
		fmt.Print(out)
	}

	player := scenario.NewPlayer(sc)
	results, err := player.Run()
	if err != nil {
		return err
	}

	failures := 0
	for i, r := range results {
		status := "ok"
		if r.Failed() {
			status = fmt.Sprintf("FAILED: %v", r.Err)
			failures++
		}
		fmt.Printf("%2d. %-14s %s\n", i+1, stepName(r.Step), status)

		if desc := describeEvent(r.Event); desc != "" {
			fmt.Printf("    %s\n", desc)
		}
		if verbose {
			if r.Inbound != "" {
				fmt.Printf("    -> %s\n", r.Inbound)
			}
			for _, frame := range r.Outbound {
				fmt.Printf("    <- %s\n", frame)
			}
		}
	}

	fmt.Println()
	if failures > 0 {
		return fmt.Errorf("%d of %d steps failed", failures, len(results))
	}
	fmt.Printf("All %d steps passed.\n", len(results))
	return nil
}

func stepName(step scenario.Step) string {
	switch step.(type) {
	case scenario.RegisterStep:
		return "register"
	case scenario.UnregisterStep:
		return "unregister"
	case scenario.ContextStep:
		return "context"
	case scenario.InvokeStep:
		return "invoke"
	case scenario.ForceStep:
		return "force"
	case scenario.EmitContextStep:
		return "emit_context"
	}
	return "unknown"
}

func describeEvent(event marionette.Event) string {
	switch ev := event.(type) {
	case marionette.ActionsRegistered:
		return "registered: " + strings.Join(ev.Names, ", ")
	case marionette.ActionsUnregistered:
		return "unregistered: " + strings.Join(ev.Names, ", ")
	case marionette.ContextReceived:
		return "context: " + ev.Message
	case marionette.ActionInvoked:
		args, _ := json.Marshal(ev.Arguments)
		kind := "spontaneous"
		if ev.Forced {
			kind = "forced"
		}
		return fmt.Sprintf("%s invocation of %s with %s", kind, ev.Name, args)
	case marionette.ActionRejected:
		return fmt.Sprintf("rejected %s: %s", ev.Name, ev.Violation.Error())
	}
	return ""
}
