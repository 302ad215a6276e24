package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"signalconfig/internal/api"
	"signalconfig/internal/clock"
	"signalconfig/internal/config"
	"signalconfig/internal/editor"
	"signalconfig/internal/launch"
	"signalconfig/internal/logging"
	"signalconfig/internal/metrics"
	"signalconfig/internal/preview"
	"signalconfig/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Service composes runtime dependencies and process lifecycle.
// Params: config source and shared runtime components.
// Returns: runnable signal configuration service.
type Service struct {
	source    config.ConfigSource
	mu        sync.Mutex
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func()
	storage   storage.Storage
	publisher launch.Publisher
	metrics   *metrics.Recorder
	registry  *editor.Registry
	handler   http.Handler
	httpSrv   *http.Server
	readyFlag atomic.Bool
	clock     clock.Clock
}

// NewService builds service instance from config source.
// Params: config source and clock implementation.
// Returns: initialized service or setup error.
func NewService(source config.ConfigSource, clk clock.Clock) (*Service, error) {
	cfg, err := config.LoadSnapshot(source)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	service := &Service{
		source:   source,
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		metrics:  metrics.New(),
		clock:    clk,
	}

	backend, err := OpenStorage(cfg, clk)
	if err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	service.storage = backend

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	service.publisher = publisher

	service.registry = editor.NewRegistry(editor.Options{
		Storage:   backend,
		Publisher: publisher,
		Metrics:   service.metrics,
		Directory: buildDirectory(cfg),
		Clock:     clk,
		Logger:    logger,
		AutoSave:  autoSaveSettings(cfg),
	})
	service.buildHTTPServer()

	logger.Info("service initialized",
		"name", cfg.Service.Name,
		"mode", cfg.Service.Mode,
		"storage", cfg.Storage.Backend,
		"autosave", cfg.AutoSave.AutoSaveEnabled(),
	)
	return service, nil
}

// Handler returns the HTTP router without starting a listener.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Registry returns the open editor registry.
func (s *Service) Registry() *editor.Registry {
	return s.registry
}

// Run starts service lifecycle and blocks until shutdown signal.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("http server starting", "listen", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.readyFlag.Store(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http shutdown failed", "error", err.Error())
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	s.mu.Lock()
	reloadEnabled := s.cfg.Service.ReloadEnabled
	reloadInterval := time.Duration(s.cfg.Service.ReloadIntervalSec) * time.Second
	s.mu.Unlock()
	if reloadEnabled {
		group.Go(func() error {
			ticker := time.NewTicker(reloadInterval)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					if err := s.reloadConfig(); err != nil {
						s.logger.Error("reload failed", "error", err.Error())
					}
				}
			}
		})
	}

	s.readyFlag.Store(true)
	runErr := group.Wait()
	if err := s.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown closes runtime resources in dependency order.
// Params: none.
// Returns: first close error.
func (s *Service) shutdown() error {
	s.readyFlag.Store(false)
	var firstErr error
	markErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.registry.CloseAll()
	if err := s.publisher.Close(); err != nil {
		s.logger.Error("launch publisher close failed", "error", err.Error())
		markErr(fmt.Errorf("launch publisher close: %w", err))
	}
	if err := s.storage.Close(); err != nil {
		s.logger.Error("storage close failed", "error", err.Error())
		markErr(fmt.Errorf("storage close: %w", err))
	}
	s.logger.Info("service stopped")
	if s.closeLog != nil {
		s.closeLog()
	}
	return firstErr
}

// cleanupInitResources closes partially initialized resources on startup failures.
// Params: none.
// Returns: all acquired resources closed best-effort.
func (s *Service) cleanupInitResources() {
	if s.publisher != nil {
		_ = s.publisher.Close()
		s.publisher = nil
	}
	if s.storage != nil {
		_ = s.storage.Close()
		s.storage = nil
	}
	if s.closeLog != nil {
		s.closeLog()
		s.closeLog = nil
	}
}

// buildHTTPServer wires router with API, metrics, and health endpoints.
// Params: none.
// Returns: none.
func (s *Service) buildHTTPServer() {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.HTTP.HealthPath, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ok"))
	})
	mux.HandleFunc(s.cfg.HTTP.ReadyPath, func(writer http.ResponseWriter, _ *http.Request) {
		if !s.readyFlag.Load() {
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("not-ready"))
			return
		}
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ready"))
	})
	if s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	apiHandler := api.NewHandler(s.registry, s.storage, s.cfg.HTTP.APIPrefix, s.cfg.HTTP.MaxBodyBytes, s.logger)
	mux.Handle(s.cfg.HTTP.APIPrefix+"/", apiHandler)

	s.handler = mux
	s.httpSrv = &http.Server{
		Addr:              s.cfg.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// reloadConfig reloads the config source and applies the settings that can change at runtime.
// Params: none.
// Returns: load error or restart-required error.
func (s *Service) reloadConfig() error {
	nextCfg, err := config.LoadSnapshot(s.source)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if nextCfg.Service.Mode != s.cfg.Service.Mode {
		return fmt.Errorf("service.mode change requires restart")
	}
	if nextCfg.Storage != s.cfg.Storage {
		return fmt.Errorf("storage change requires restart")
	}
	s.registry.SetAutoSave(autoSaveSettings(nextCfg))
	s.cfg = nextCfg
	s.logger.Info("configuration reloaded", "autosave", nextCfg.AutoSave.AutoSaveEnabled(), "delay_ms", nextCfg.AutoSave.DelayMS)
	return nil
}

// OpenStorage creates the draft storage backend from config.
// Params: root config snapshot and clock.
// Returns: selected storage backend.
func OpenStorage(cfg config.Config, clk clock.Clock) (storage.Storage, error) {
	if cfg.Storage.Backend == config.StorageBackendSQLite {
		backend, err := storage.OpenSQLite(cfg.Storage.Path, clk.Now)
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
	return storage.NewMemoryStorage(clk.Now), nil
}

// buildPublisher creates the launch publisher for the configured mode.
// Params: root config snapshot and logger.
// Returns: NATS publisher in nats mode, log publisher otherwise.
func buildPublisher(cfg config.Config, logger *slog.Logger) (launch.Publisher, error) {
	if isSingleMode(cfg) {
		return launch.LogPublisher{Logger: logger}, nil
	}
	publisher, err := launch.NewNATSPublisher(cfg.Launch)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

// buildDirectory overlays configured recipients on the built-in directory.
func buildDirectory(cfg config.Config) preview.Directory {
	directory := preview.DefaultDirectory()
	for id, name := range cfg.Recipients {
		directory[id] = name
	}
	return directory
}

func autoSaveSettings(cfg config.Config) editor.AutoSaveSettings {
	return editor.AutoSaveSettings{
		Enabled:     cfg.AutoSave.AutoSaveEnabled(),
		Delay:       cfg.AutoSave.Delay(),
		SaveTimeout: cfg.AutoSave.SaveTimeout(),
	}
}

func isSingleMode(cfg config.Config) bool {
	return config.NormalizeServiceMode(cfg.Service.Mode) == config.ServiceModeSingle
}
