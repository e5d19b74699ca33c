package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"eco2mix-insights/internal/audit"
	"eco2mix-insights/internal/auth"
	"eco2mix-insights/internal/energy/application"
	"eco2mix-insights/internal/energy/domain/snapshot"
	"eco2mix-insights/internal/energy/infrastructure/csvsource"
	"eco2mix-insights/internal/energy/infrastructure/postgres"
	"eco2mix-insights/internal/energy/infrastructure/sqlite"
	energyhttp "eco2mix-insights/internal/energy/interfaces/http"
	"eco2mix-insights/internal/energy/interfaces/schedule"
	"eco2mix-insights/internal/observability/logging"
	"eco2mix-insights/internal/observability/metrics"
	"eco2mix-insights/internal/observability/timing"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cutoff, _ := cfg.cutoff()
	loader, err := csvsource.NewLoader(cfg.DataPath, cfg.DataURL,
		csvsource.WithTimeout(cfg.HTTPTimeout),
		csvsource.WithCutoff(cutoff),
		csvsource.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("loader error: %v", err)
	}

	queryOpts := []application.QueryOption{application.WithQueryLogger(logger)}
	if cfg.QueryTimingLog != "" {
		timingLog, err := timing.Open(cfg.QueryTimingLog)
		if err != nil {
			logger.Fatalf("query timing log error: %v", err)
		}
		defer timingLog.Close()
		queryOpts = append(queryOpts, application.WithTimingRecorder(timingLog))
	}

	holder := application.NewDatasetHolder()
	queries, err := application.NewQueryService(holder, cfg.CacheSize, queryOpts...)
	if err != nil {
		logger.Fatalf("query service error: %v", err)
	}
	reloader, err := application.NewReloader(loader, holder, queries, application.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("reloader error: %v", err)
	}
	if _, err := reloader.Reload(ctx); err != nil {
		logger.Fatalf("initial dataset load error: %v", err)
	}

	store, closeStore, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("snapshot store error: %v", err)
	}
	defer closeStore()
	snapshots, err := application.NewSnapshotService(queries, store, application.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("snapshot service error: %v", err)
	}

	if cfg.ReloadSchedule != "" {
		scheduler, err := schedule.New(cfg.ReloadSchedule, reloader,
			schedule.WithPublisher(snapshots),
			schedule.WithLogger(logger),
		)
		if err != nil {
			logger.Fatalf("reload schedule error: %v", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
		logger.Infof("dataset reload scheduled %q, next run %s", cfg.ReloadSchedule, scheduler.Next().Format(time.RFC3339))
	}

	handler, err := energyhttp.NewHandler(queries, reloader, snapshots, logger,
		energyhttp.WithAuditLogger(audit.NewLogrusLogger(logger)),
	)
	if err != nil {
		logger.Fatalf("energy handler error: %v", err)
	}

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authPolicy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), authPolicy)
	if authMiddleware == nil {
		logger.Warn("AUTH_JWT_SECRET not set, API is open")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}
}

func openSnapshotStore(ctx context.Context, cfg config) (snapshot.Store, func(), error) {
	switch cfg.SnapshotDriver {
	case "postgres":
		db, err := sql.Open("pgx", cfg.SnapshotDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo, err := postgres.NewDailySnapshotRepository(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	case "sqlite":
		store, err := sqlite.New(cfg.SnapshotDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func loggingMiddleware(next http.Handler, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   resp.status,
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
