// Command sokoban starts the Sokoban game server.
//
// It supports four commands:
//  1. "server" (default): runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp": runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play": plays a level in the terminal
//  4. "validate": checks the level files of a directory
//
// Flags control host/port, level and session directories, level maker sizes,
// logging, and optional ngrok tunneling for easy external access during development.
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/builder"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/levels"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/mcp"
	"github.com/wricardo/sokoban/transport/terminal"
	"github.com/wricardo/sokoban/transport/websocket"
	"github.com/wricardo/sokoban/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Server"
)

const (
	sessionMaxAge        = 24 * time.Hour
	sessionCleanupPeriod = 1 * time.Hour
	filesystemSyncPeriod = 5 * time.Second
)

var errInvalidLevels = errors.New("some levels have errors")

// config is the resolved command line and environment configuration
type config struct {
	Host         string
	Port         int
	LevelDir     string
	DefaultLevel string
	SessionsDir  string
	Bounds       builder.Bounds
	Debug        bool
	LogFormat    string

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

func (c config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// services groups everything a command needs to serve games
type services struct {
	game        service.GameService
	levels      *levels.Manager
	sessions    *session.Manager
	persistence session.SessionPersistence
	hub         *websocket.Hub

	defaultLevel string
}

// reloadLevels drops cached levels so edited files are picked up
func (s *services) reloadLevels() {
	s.levels.RefreshCache()
	if s.defaultLevel == "" {
		return
	}
	if err := s.levels.SetDefault(s.defaultLevel); err != nil {
		log.WithError(err).Warn("default level is gone after reload")
	}
}

// reloadOnHangup reloads the level catalogue on every SIGHUP until ctx is done
func (s *services) reloadOnHangup(ctx context.Context) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			s.reloadLevels()
			log.Println("Level catalogue reloaded")
		}
	}
}

// main loads .env, then parses flags and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "level-dir", Value: "levels", Usage: "Directory containing level files (.json, .hcl)", Sources: cli.EnvVars("LEVEL_DIR")},
			&cli.StringFlag{Name: "default-level", Usage: "Level played when a session names none (defaults to warmup)", Sources: cli.EnvVars("DEFAULT_LEVEL")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions (empty keeps sessions in memory)", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.IntFlag{Name: "maker-min-size", Value: builder.DefaultBounds.Min, Usage: "Smallest level maker board side", Sources: cli.EnvVars("MAKER_MIN_SIZE")},
			&cli.IntFlag{Name: "maker-max-size", Value: builder.DefaultBounds.Max, Usage: "Largest level maker board side", Sources: cli.EnvVars("MAKER_MAX_SIZE")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "Log format: text or json", Sources: cli.EnvVars("LOG_FORMAT")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: setupLogging,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return fmt.Errorf("unknown mode: %s. Use 'server' (default), 'mcp', 'play' or 'validate'", cmd.Args().First())
			}
			return runServer(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, with an internal HTTP server when none is running",
				Action:  runMCP,
			},
			{
				Name:      "play",
				Usage:     "Play a level in the terminal",
				ArgsUsage: "[level-id]",
				Action:    runPlay,
			},
			{
				Name:      "validate",
				Usage:     "Validate the level files of a directory",
				ArgsUsage: "[dir]",
				Action:    runValidate,
			},
		},
	}
}

func configFromCommand(cmd *cli.Command) config {
	return config{
		Host:         cmd.String("host"),
		Port:         cmd.Int("port"),
		LevelDir:     cmd.String("level-dir"),
		DefaultLevel: cmd.String("default-level"),
		SessionsDir:  cmd.String("sessions-dir"),
		Bounds:       builder.Bounds{Min: cmd.Int("maker-min-size"), Max: cmd.Int("maker-max-size")},
		Debug:        cmd.Bool("debug"),
		LogFormat:    cmd.String("log-format"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := configFromCommand(cmd)

	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return ctx, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return ctx, nil
}

// initializeServices wires the level catalogue, session manager and game service.
// An empty SessionsDir keeps sessions in memory only.
func initializeServices(cfg config) (*services, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}

	catalogue, err := levels.NewManager(cfg.LevelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	if cfg.DefaultLevel != "" {
		if err := catalogue.SetDefault(cfg.DefaultLevel); err != nil {
			return nil, fmt.Errorf("failed to set default level: %w", err)
		}
	}

	s := &services{levels: catalogue, defaultLevel: cfg.DefaultLevel}
	if cfg.SessionsDir == "" {
		s.sessions = session.NewManager()
	} else {
		persistence, err := session.NewFilePersistence(cfg.SessionsDir, catalogue)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		s.persistence = persistence
		s.sessions = session.NewManagerWithPersistence(persistence)

		// Load persisted sessions on startup
		if err := s.sessions.LoadPersistedSessions(); err != nil {
			log.Printf("Warning: Failed to load persisted sessions: %v", err)
		}
	}

	s.hub = websocket.NewHub()
	s.game = service.NewGameService(s.sessions, catalogue, cfg.Bounds, service.WithPublisher(s.hub))
	return s, nil
}

// startBackgroundRoutines runs session cleanup and filesystem sync until ctx is done
func (s *services) startBackgroundRoutines(ctx context.Context) {
	go sessionCleanupRoutine(ctx, s.sessions, sessionCleanupPeriod, sessionMaxAge)
	if s.persistence != nil {
		go filesystemSyncRoutine(ctx, s.sessions, s.persistence, filesystemSyncPeriod)
	}
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	svcs, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs.startBackgroundRoutines(ctx)
	go svcs.reloadOnHangup(ctx)
	return runHTTPServer(ctx, cfg, svcs)
}

// newHTTPHandler combines the REST API, WebSocket hub and the /mcp endpoint
func newHTTPHandler(svcs *services, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(svcs.game, svcs.hub))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// mcpHandler serves one JSON-RPC message per POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer serves until ctx is done. If ngrok is enabled it also
// provisions a public tunnel serving the same handler.
func runHTTPServer(ctx context.Context, cfg config, svcs *services) error {
	go svcs.hub.Run()

	addr := cfg.addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newHTTPHandler(svcs, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err = <-serveErr:
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}
	if saveErr := svcs.sessions.SaveAllSessions(); saveErr != nil {
		log.WithError(saveErr).Warn("failed to save sessions on shutdown")
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, cfg config, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically removes sessions from memory when their
// files were deleted from the sessions directory.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncWithFilesystem(manager, persistence); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.WithField("session", s.ID).Info("pruned session from memory (file deleted)")
		}
	}
	return pruned
}

// runMCP runs an MCP stdio server. It reuses an API already listening on
// host:port; otherwise it starts an internal HTTP API on a random loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	externalURL := fmt.Sprintf("http://%s", cfg.addr())
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil && resp.StatusCode < 500 {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		svcs, err := initializeServices(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		svcs.startBackgroundRoutines(ctx)

		internal, err := startInternalServer(svcs)
		if err != nil {
			return err
		}
		defer internal.Close()
		baseURL = fmt.Sprintf("http://%s", internal.Addr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// startInternalServer serves the REST API on a random loopback port
func startInternalServer(svcs *services) (*http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to get available port: %w", err)
	}

	go svcs.hub.Run()

	httpServer := &http.Server{
		Addr:    listener.Addr().String(),
		Handler: api.NewServer(svcs.game, svcs.hub),
	}
	log.Printf("Starting internal HTTP server on %s for MCP stdio", httpServer.Addr)

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	return httpServer, nil
}

// runPlay plays one level in the terminal. The argument is a level ID or a
// path to a JSON level file. Sessions stay in memory.
func runPlay(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	cfg.SessionsDir = ""

	// Log lines would garble the screen
	if !cfg.Debug {
		log.SetOutput(io.Discard)
	}

	svcs, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	sessionID, err := startPlaySession(ctx, svcs, cmd.Args().First())
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return terminal.NewGame(screen, svcs.game, sessionID).Run(ctx)
}

func startPlaySession(ctx context.Context, svcs *services, arg string) (string, error) {
	if filepath.Ext(arg) != ".json" {
		info, err := svcs.game.CreateSession(ctx, arg)
		if err != nil {
			return "", err
		}
		return info.ID, nil
	}

	level, err := engine.LoadLevelFile(arg)
	if err != nil {
		return "", err
	}
	levelID := "file:" + strings.TrimSuffix(filepath.Base(arg), ".json")
	sess, err := svcs.sessions.Create("", levelID, level)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

// runValidate validates the directory given as argument, or the level directory
func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("level-dir")
	if cmd.Args().Present() {
		dir = cmd.Args().First()
	}

	results, err := validate.Dir(dir)
	if err != nil {
		return fmt.Errorf("failed to read level directory: %w", err)
	}

	if !validate.Report(cmd.Root().Writer, results) {
		return errInvalidLevels
	}
	return nil
}
