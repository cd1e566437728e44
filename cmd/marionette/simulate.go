package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/internal/cli"
	"github.com/puppetwire/marionette/internal/logging"
	"github.com/puppetwire/marionette/internal/scenario"
	mcpadapter "github.com/puppetwire/marionette/pkg/adapters/mcp"
	"github.com/puppetwire/marionette/pkg/protocol"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Expose a simulated game to an MCP client",
	Long: `Starts an MCP server around a session so an MCP client can play the
agent role: list the registered actions, inspect the forced choice,
and invoke actions. A scenario file seeds the action registry.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		scenarioPath, _ := cmd.Flags().GetString("scenario")
		ssePort, _ := cmd.Flags().GetInt("sse-port")

		if err := runSimulate(configPath, scenarioPath, ssePort); err != nil {
			fmt.Printf("Simulate failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("scenario", "", "Scenario file whose register steps seed the session")
	simulateCmd.Flags().Int("sse-port", 0, "Serve MCP over SSE on this port instead of stdio")
}

func runSimulate(configPath, scenarioPath string, ssePort int) error {
	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Level())
	session := marionette.New(append(cfg.SessionOptions(), marionette.WithLogger(logger))...)

	if scenarioPath != "" {
		if err := seedFromScenario(session, scenarioPath); err != nil {
			return err
		}
	}

	server := mcpadapter.NewServer(session)

	if ssePort > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-shutdown
			cancel()
		}()

		return server.ServeSSE(ctx, ssePort)
	}
	return server.ServeStdio()
}

// seedFromScenario applies the register steps of a scenario so the MCP
// client has actions to work with.
func seedFromScenario(session *marionette.Session, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	codec := &protocol.Codec{}
	for _, step := range sc.Steps {
		reg, ok := step.(scenario.RegisterStep)
		if !ok {
			continue
		}
		actions := make([]protocol.Action, 0, len(reg.Actions))
		for _, def := range reg.Actions {
			act, err := def.Action()
			if err != nil {
				return err
			}
			actions = append(actions, act)
		}
		frame, err := codec.Encode(protocol.RegisterActions{Actions: actions})
		if err != nil {
			return err
		}
		if _, err := session.HandleInbound(frame); err != nil {
			return err
		}
	}
	return nil
}
