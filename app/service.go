package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/classplan/api/sections"
	"github.com/kilianp07/classplan/api/solve"
	apisolvelog "github.com/kilianp07/classplan/api/solvelog"
	_ "github.com/kilianp07/classplan/app/plugins"
	"github.com/kilianp07/classplan/config"
	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/events"
	coremetrics "github.com/kilianp07/classplan/core/metrics"
	coremon "github.com/kilianp07/classplan/core/monitoring"
	"github.com/kilianp07/classplan/core/solver"
	"github.com/kilianp07/classplan/infra/catalog/sqlite"
	"github.com/kilianp07/classplan/infra/logger"
	"github.com/kilianp07/classplan/infra/metrics"
	"github.com/kilianp07/classplan/infra/monitoring"
	"github.com/kilianp07/classplan/infra/mqtt"
	"github.com/kilianp07/classplan/infra/solvelog"
	"github.com/kilianp07/classplan/internal/eventbus"
)

// Service wires the catalog refresher, the solver and the HTTP API.
type Service struct {
	cfg       *config.Config
	Store     *catalog.Store
	Refresher *Refresher
	solver    *solver.Solver
	solveLog  solvelog.Store
	cache     *sqlite.SQLiteStore
	mqtt      *mqtt.PahoClient
	sink      coremetrics.MetricsSink
	solves    *eventbus.Bus[events.SolveEvent]
	refreshes *eventbus.Bus[events.CatalogRefreshEvent]
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	src, err := catalog.NewSource(cfg.Catalog.Source)
	if err != nil {
		return nil, fmt.Errorf("catalog source: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	logStore, err := solvelog.New(cfg.SolveLog)
	if err != nil {
		return nil, fmt.Errorf("solve log: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		Store:     catalog.NewStore(),
		solver:    solver.New(cfg.Solver),
		solveLog:  logStore,
		sink:      sink,
		solves:    eventbus.New[events.SolveEvent](),
		refreshes: eventbus.New[events.CatalogRefreshEvent](),
		log:       logg,
	}
	if cfg.Catalog.Cache.Enabled {
		s.cache, err = sqlite.NewSQLiteStore(cfg.Catalog.Cache.Path)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("catalog cache: %w", err)
		}
	}
	s.Refresher = NewRefresher(RefresherOptions{
		Source:   src,
		Store:    s.Store,
		Cache:    s.cache,
		Bus:      s.refreshes,
		Interval: cfg.Catalog.RefreshInterval(),
		Logger:   logger.New("refresher"),
	})
	if cfg.MQTT.Enabled {
		s.mqtt, err = mqtt.NewPahoClient(cfg.MQTT, func(reason string) { s.Refresher.Trigger(reason) })
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.Refresher.announcer = s.mqtt
	}
	return s, nil
}

// Handler returns the API routes wrapped in the Sentry middleware.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/solve", solve.NewHandler(solve.Deps{
		Catalog: s.Store,
		Solver:  s.solver,
		Log:     s.solveLog,
		Events:  s.solves,
	}))
	mux.Handle("/sections", sections.NewSectionsHandler(s.Store))
	mux.Handle("/classes", sections.NewClassesHandler(s.Store))
	mux.Handle("/update", s.Refresher.UpdateHandler())
	mux.Handle("/api/solves", apisolvelog.NewLogHandler(s.solveLog, s.cfg.Server.SolveLogToken))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.Store.Ready() {
			http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return monitoring.Middleware(s.cfg.Sentry, mux)
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.solves, s.refreshes, s.sink)
	if s.cfg.Metrics.PrometheusEnabled() {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.Server.ReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout(),
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infof("listening on %s", s.cfg.Server.Address)

	// Requests answer 503 until the first snapshot is in the store.
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := s.Refresher.Start(ctx); err != nil {
			s.log.Errorf("%v", err)
		}
		s.Refresher.Run(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	if ctx.Err() != nil {
		<-refreshDone
	}
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.solveLog != nil {
		errs = append(errs, s.solveLog.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	s.solves.Close()
	s.refreshes.Close()
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
