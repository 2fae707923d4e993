package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/blackjack-backend/internal/auth"
	"github.com/DoyleJ11/blackjack-backend/internal/config"
	"github.com/DoyleJ11/blackjack-backend/internal/httpapi"
	"github.com/DoyleJ11/blackjack-backend/internal/hub"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
	"github.com/DoyleJ11/blackjack-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backing, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	st := store.NewRetrying(backing, logger.Named("ledger"))

	h := hub.NewHub(context.Background(), hub.Config{
		Store:  st,
		Rules:  cfg.Rules,
		Logger: logger.Named("table"),
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:      h,
		Store:    st,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Logger:   logger.Named("http"),
		WS:       ws.Config{Logger: logger.Named("ws"), MsgsPerSec: cfg.WSMsgsPerSec},
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return st.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Tables refund open wagers on the way down, so stop them before the
		// ledger goes away.
		if err := h.Shutdown(sctx); err != nil {
			logger.Warn("tables did not stop in time", zap.Error(err))
		}
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		return store.NewMemory(cfg.StartingBalance), func() {}, nil
	}
	pg, err := store.OpenPostgres(cfg.DatabaseURL, cfg.StartingBalance)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}
