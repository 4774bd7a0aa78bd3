package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/coach/internal/agents"
	"github.com/kalambet/coach/internal/api"
	"github.com/kalambet/coach/internal/config"
	"github.com/kalambet/coach/internal/goal"
	"github.com/kalambet/coach/internal/ledger"
	"github.com/kalambet/coach/internal/price"
	"github.com/kalambet/coach/internal/radar"
	"github.com/kalambet/coach/internal/storage"
	"github.com/kalambet/coach/internal/trace"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the coach server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running coach server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show coach server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve the goal agents as MCP tools over stdio")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "coach.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "coach version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)})))

	// Refuse to start twice against the same port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("coach is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("coach is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	var repo goal.Repository = store.Goals()
	if cfg.Goals.Backend == config.GoalsBackendMemory {
		repo = goal.NewMemoryStore()
	}
	slog.Info("goal store ready", "backend", cfg.Goals.Backend)

	prices := price.NewClient(price.Options{
		BaseURL:       cfg.Price.BaseURL,
		CacheTTL:      cfg.Price.CacheTTL,
		RatePerSecond: cfg.Price.RatePerSecond,
	})

	chain, err := ledger.Dial(ctx, ledger.Options{
		RPCURL:          cfg.Ledger.RPCURL,
		ContractAddress: cfg.Ledger.ContractAddress,
		PrivateKey:      cfg.Ledger.PrivateKey,
		ConfirmTimeout:  cfg.Ledger.ConfirmTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to ledger: %w", err)
	}
	if cfg.Ledger.ContractAddress == "" {
		slog.Warn("ledger contract address not set; alert requests will fail", "env", "COACH_LEDGER_CONTRACT_ADDRESS")
	}

	emitter := trace.NewEmitter(cfg.Trace.APIKey, cfg.Trace.Project, store)
	if emitter.Exporting() {
		worker := trace.NewWorker(store, trace.ExporterConfig{
			BaseURL:   cfg.Trace.BaseURL,
			APIKey:    cfg.Trace.APIKey,
			Workspace: cfg.Trace.Workspace,
		}, time.Second)
		go worker.Run(ctx)
		slog.Info("trace export enabled", "project", cfg.Trace.Project)
	}

	goals := agents.NewService(repo, emitter)
	handler := api.NewRouter(api.Deps{
		Radar:  radar.NewAgent(prices, chain),
		Alerts: chain,
		Goals:  goals,
		Admin:  store,
		Token:  cfg.Server.APIToken,
	})
	if cfg.Server.APIToken == "" {
		slog.Warn("no API token configured; /agents routes are open", "env", "COACH_API_TOKEN")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(goals, version))
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "coach listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("coach is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop coach (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to coach (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}

	resp, err := client.get(ctx, "/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if running {
		if summary, err := fetchSummary(ctx, client); err == nil {
			printStatus("Rooms", "%d (%d active alerts)", summary.TotalRooms, summary.ActiveAlerts)
		}
	}

	printStatus("Goals backend", "%s", cfg.Goals.Backend)
	printStatus("Ledger RPC", "%s", cfg.Ledger.RPCURL)
	contract := cfg.Ledger.ContractAddress
	if contract == "" {
		contract = colorize(colorYellow, "not set")
	}
	printStatus("Contract", "%s", contract)
	tracing := "log only"
	if cfg.Trace.APIKey != "" {
		tracing = "exporting to " + cfg.Trace.BaseURL
	}
	printStatus("Tracing", "%s", tracing)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
