package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/internal/cli"
	"github.com/puppetwire/marionette/internal/logging"
	httpadapter "github.com/puppetwire/marionette/pkg/adapters/http"
	"github.com/puppetwire/marionette/pkg/adapters/ws"
	"github.com/puppetwire/marionette/pkg/force"
	"github.com/puppetwire/marionette/pkg/observability"
	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/runner"
	"github.com/puppetwire/marionette/pkg/transcript"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the protocol over WebSocket",
	Long: `Starts the WebSocket endpoint games connect to, plus an HTTP
inspection API exposing registered actions, the outstanding forced
choice, recorded transcripts, and Prometheus metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := cli.LoadConfig(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("ws"); addr != "" {
			cfg.Listen.WS = addr
		}
		if addr, _ := cmd.Flags().GetString("api"); addr != "" {
			cfg.Listen.API = addr
		}

		if err := runServe(cfg); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("ws", "", "WebSocket listen address (overrides config)")
	serveCmd.Flags().String("api", "", "Inspection API listen address (overrides config)")
}

// runnerHolder tracks the runner of the most recent connection so the
// inspection API has something to read. At most one peer is served at
// a time.
type runnerHolder struct {
	mu     sync.Mutex
	active *runner.Runner
}

func (h *runnerHolder) set(r *runner.Runner) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = r
}

func (h *runnerHolder) Actions() []protocol.Action {
	h.mu.Lock()
	r := h.active
	h.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Actions()
}

func (h *runnerHolder) OutstandingForce() *force.Request {
	h.mu.Lock()
	r := h.active
	h.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.OutstandingForce()
}

func runServe(cfg cli.Config) error {
	logger := logging.New(cfg.Level())

	store, err := cfg.TranscriptStore()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	holder := &runnerHolder{}
	upgrader := ws.NewUpgrader()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One peer at a time; a second connection waits for the first to go.
	var connMu sync.Mutex

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r)
		if err != nil {
			logger.Warn("upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		connMu.Lock()
		defer connMu.Unlock()

		session := marionette.New(append(cfg.SessionOptions(),
			marionette.WithLogger(logger),
			marionette.WithHooks(metrics.Hooks()),
		)...)

		opts := []runner.Option{runner.WithLogger(logger)}
		if store != nil {
			opts = append(opts, runner.WithRecorder(transcript.NewRecorder(store, uuid.NewString())))
		}
		run := runner.New(session, conn, opts...)

		holder.set(run)
		defer holder.set(nil)

		logger.Info("peer connected", "remote", r.RemoteAddr)
		if err := run.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("connection loop failed", "error", err)
		}
	})

	apiRouter := chi.NewRouter()
	apiRouter.Mount("/", httpadapter.NewHandler(holder, store))
	apiRouter.Method(http.MethodGet, "/metrics", observability.Handler(registry))

	wsServer := &http.Server{Addr: cfg.Listen.WS, Handler: wsMux}
	apiServer := &http.Server{Addr: cfg.Listen.API, Handler: apiRouter}

	serverErrors := make(chan error, 2)
	go func() {
		fmt.Printf("Marionette protocol endpoint on ws://%s\n", cfg.Listen.WS)
		serverErrors <- wsServer.ListenAndServe()
	}()
	go func() {
		fmt.Printf("Inspection API on http://%s\n", cfg.Listen.API)
		serverErrors <- apiServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			_ = wsServer.Close()
		}
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			_ = apiServer.Close()
		}
		fmt.Println("Marionette stopped gracefully")
		return nil
	}
}
