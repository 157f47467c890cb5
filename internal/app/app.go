// Package app wires configuration, logging, the cache, the remote
// client, and the workflows into a runnable desk application.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookdesk/internal/api"
	"bookdesk/internal/api/stubs"
	"bookdesk/internal/cache"
	"bookdesk/internal/cli"
	"bookdesk/internal/config"
	"bookdesk/internal/scanbridge"
	"bookdesk/internal/session"
	"bookdesk/internal/store"
	"bookdesk/internal/workflow"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	cache   *cache.Cache
	client  *api.Client // nil when running against the stub
	remote  api.Service
	store   *store.Store
	session *session.Session

	lend   *workflow.LendFlow
	ret    *workflow.ReturnFlow
	bridge *scanbridge.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{config: cfg, logger: logger}

	if err := app.initCache(); err != nil {
		return nil, err
	}
	app.initRemote()
	app.initWorkflows()
	app.restoreSession()
	app.initScanBridge()

	return app, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	// The CLI owns stdout; logs go to stderr at warn and above.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func (a *App) initCache() error {
	c, err := cache.Open(a.config.CachePath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	a.cache = c
	return nil
}

func (a *App) initRemote() {
	if a.config.UseStubService {
		a.logger.Info("Using in-memory stub service")
		lib := stubs.NewLibrary()
		lib.Seed()
		a.remote = lib
		return
	}

	a.client = api.NewClient(a.config.APIBaseURL, a.config.RequestTimeout, a.logger)
	a.remote = a.client
}

func (a *App) initWorkflows() {
	a.store = store.New(a.logger)
	a.session = session.New()
	a.lend = workflow.NewLendFlow(a.remote, a.logger)
	a.ret = workflow.NewReturnFlow(a.remote, a.store, a.logger)
}

// restoreSession picks up where the last run left off. An expired
// token is dropped instead of restored; the server would reject it
// anyway.
func (a *App) restoreSession() {
	stored, err := a.cache.LoadSession(context.Background())
	if err != nil {
		if !errors.Is(err, cache.ErrNotCached) {
			a.logger.Warn("Failed to restore session", zap.Error(err))
		}
		return
	}

	a.session.Establish(stored.Token, stored.User)
	if a.session.ExpiredAt(time.Now()) {
		a.logger.Info("Stored session expired, logging out")
		a.session.Clear()
		return
	}

	if a.client != nil {
		a.client.SetToken(stored.Token)
	}
}

func (a *App) initScanBridge() {
	if a.config.ScanBridgeAddr == "" {
		return
	}

	// Hardware scans feed the lend flow; the gate swallows repeat
	// frames of the same code.
	scanner := workflow.NewScanner(a.lend.HandleScan)
	a.bridge = scanbridge.New(a.config.ScanBridgeAddr, scanner, a.logger)
}

// Run executes one CLI invocation and blocks until it finishes or the
// process is interrupted.
func (a *App) Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.bridge != nil {
		a.bridge.Start()
	}

	deps := &cli.Deps{
		Logger:  a.logger,
		Remote:  a.remote,
		Store:   a.store,
		Session: a.session,
		Cache:   a.cache,
		Lend:    a.lend,
		Return:  a.ret,
	}
	if a.client != nil {
		deps.SetToken = a.client.SetToken
	}

	root := cli.New(deps)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	if shutdownErr := a.Shutdown(); shutdownErr != nil {
		a.logger.Warn("Shutdown error", zap.Error(shutdownErr))
	}
	return err
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	if a.bridge != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.bridge.Shutdown(ctx); err != nil {
			a.logger.Warn("Scanner bridge shutdown error", zap.Error(err))
		}
	}

	a.logger.Sync()

	if err := a.cache.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	return nil
}
