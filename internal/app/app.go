package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"example.com/sketchwars/internal/config"
	"example.com/sketchwars/internal/game"
	"example.com/sketchwars/internal/httpapi"
	"example.com/sketchwars/internal/metrics"
	"example.com/sketchwars/internal/stats"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	rdb *redis.Client

	srv *http.Server
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	// --- Stats backend ---
	var (
		rdb        *redis.Client
		statsStore stats.Store
	)
	switch cfg.Stats.Backend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
		}
		statsStore = stats.NewRedisStore(rdb, cfg.Redis.StatsTTL)
	default:
		statsStore = stats.NewMemoryStore()
	}
	collector := stats.NewCollector(statsStore, log)

	// --- Game ---
	gameCfg := game.Config{
		Capacity:        cfg.Game.Capacity,
		MaxRounds:       cfg.Game.MaxRounds,
		RoundDuration:   cfg.Game.RoundDuration,
		WordChoiceCount: cfg.Game.WordChoiceCount,
	}
	rooms := game.NewRegistry(gameCfg, log, collector)
	gameSrv := game.NewServer(rooms, log)
	statsH := stats.NewHandler(collector, log)

	r := mux.NewRouter()
	r.Use(httpapi.CORS, httpapi.RequestLogger(log))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	gameSrv.RegisterRoutes(r)
	statsH.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, rdb: rdb, srv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "stats", a.cfg.Stats.Backend)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	err := g.Wait()
	_ = a.Close()
	return err
}

func (a *App) Close() error {
	// best-effort
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
