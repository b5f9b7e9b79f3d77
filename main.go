package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"Windcalc/internal/auth"
	"Windcalc/internal/calc/report"
	"Windcalc/internal/calc/wind"
	"Windcalc/internal/config"
	"Windcalc/internal/logger"
	"Windcalc/internal/observability"
	"Windcalc/internal/repo"
	"Windcalc/internal/scenario"
)

var wg sync.WaitGroup

// deps is everything the router needs. Auth is nil when login is disabled.
type deps struct {
	Calculator *wind.Calculator
	Store      *scenario.Store
	Auth       *auth.Authenv
	Limiter    *auth.IPRateLimiter
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Gatherer   http.Handler
	Renderer   report.Renderer
}

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func HandleList(mux *mux.Router, d deps) {
	windH := &wind.Handler{Calculator: d.Calculator, Metrics: d.Metrics, Logger: d.Logger}
	reportH := &report.Handler{Calculator: d.Calculator, Clock: d.Clock, Metrics: d.Metrics, Logger: d.Logger, Renderer: d.Renderer}
	scenarioH := &scenario.Handler{Store: d.Store, Logger: d.Logger}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	if d.Gatherer != nil {
		mux.Handle("/metrics", d.Gatherer).Methods("GET")
	}

	api := mux.PathPrefix("/api").Subrouter()
	if d.Limiter != nil {
		api.Use(d.Limiter.LimitMiddleware)
	}

	api.HandleFunc("/wind/cities", windH.Cities).Methods("GET")
	api.HandleFunc("/wind/calc", windH.Calc).Methods("POST")
	api.HandleFunc("/wind/compare", windH.Compare).Methods("POST")
	api.HandleFunc("/wind/export/csv", windH.ExportCSV).Methods("POST")
	api.HandleFunc("/wind/export/xlsx", windH.ExportXLSX).Methods("POST")
	api.HandleFunc("/wind/import", windH.Import).Methods("POST")
	api.HandleFunc("/wind/report", reportH.Generate).Methods("POST")

	scenarios := api.PathPrefix("/scenarios").Subrouter()
	if d.Auth != nil {
		api.HandleFunc("/login", d.Auth.AuthHandler).Methods("POST")
		api.HandleFunc("/register", d.Auth.RegisterHandler).Methods("POST")
		scenarios.Use(d.Auth.AuthMiddleware)
	}
	scenarios.HandleFunc("", scenarioH.List).Methods("GET")
	scenarios.HandleFunc("", scenarioH.Save).Methods("POST")
	scenarios.HandleFunc("/{index:[0-9]+}", scenarioH.Load).Methods("GET")
	scenarios.HandleFunc("/{index:[0-9]+}", scenarioH.Delete).Methods("DELETE")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logg.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	var db *sql.DB
	var blob scenario.Blob
	if cfg.DatabaseURL != "" {
		db, err = repo.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logg.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		if err := repo.EnsureSchema(ctx, db); err != nil {
			logg.Fatal("prepare schema", zap.Error(err))
		}
		blob = repo.NewPostgresBlobDB(db)
		logg.Info("scenarios stored in postgres")
	} else {
		blob = scenario.NewFileBlob(afero.NewOsFs(), cfg.StoreDir)
		logg.Info("scenarios stored on disk", zap.String("dir", cfg.StoreDir))
	}

	var renderer report.Renderer
	if cfg.ReportFontFile != "" {
		renderer.UTF8Font, err = afero.ReadFile(afero.NewOsFs(), cfg.ReportFontFile)
		if err != nil {
			logg.Fatal("read report font", zap.Error(err))
		}
	}

	d := deps{
		Calculator: wind.NewCalculator(wind.DefaultTables()),
		Renderer:   renderer,
		Store:      scenario.NewStore(blob, clock, logg, metrics),
		Limiter:    auth.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		Clock:      clock,
		Metrics:    metrics,
		Logger:     logg,
		Gatherer:   promhttp.Handler(),
	}
	if cfg.AuthEnabled() {
		d.Auth = &auth.Authenv{
			JWTkey:       []byte(cfg.TokenKey),
			Repo:         repo.NewPostgresUserDB(db),
			Clock:        clock,
			Logger:       logg,
			SecureCookie: cfg.TLSEnabled(),
		}
	}

	router := mux.NewRouter()
	HandleList(router, d)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: CORS(router),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logg.Info("starting server",
			zap.String("addr", cfg.HTTPAddr),
			zap.Bool("tls", cfg.TLSEnabled()),
			zap.Bool("auth", cfg.AuthEnabled()))
		var err error
		if cfg.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logg.Info("shutdown signal received, closing active connections")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	wg.Wait()
	logg.Info("server stopped")
}
