// Package main runs the stablecoin client as an HTTP service: a synchronized
// read API over the cache plus command endpoints for create, mint and redeem.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stablefun/internal/cache"
	"stablefun/internal/config"
	"stablefun/internal/domain"
	"stablefun/internal/gateway"
	"stablefun/internal/observability"
	"stablefun/internal/oracle"
	"stablefun/internal/solana"
	"stablefun/internal/store"
	"stablefun/internal/wallet"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	keypairPath := flag.String("keypair", "", "Path to wallet keypair file (overrides config)")
	refreshInterval := flag.Duration("refresh-interval", 30*time.Second, "Background full refresh interval (0 disables)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *keypairPath != "" {
		cfg.KeypairPath = *keypairPath
	}
	if cfg.KeypairPath == "" {
		logger.Fatal("keypair path is required (--keypair or config)")
	}

	kp, err := wallet.Load(cfg.KeypairPath)
	if err != nil {
		logger.Fatal("load keypair", zap.Error(err))
	}
	logger.Info("wallet loaded", zap.String("pubkey", kp.Pubkey()))

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	gw := gateway.New(gateway.Options{
		RPC:            rpc,
		Prices:         oracle.NewFeedReader(rpc),
		Signer:         kp,
		ProgramID:      cfg.ProgramID,
		StablebondMint: cfg.StablebondMint,
		Logger:         logger,
	})

	s := store.New(store.Options{
		Gateway: gw,
		Cache:   cache.New(),
		Logger:  logger,
		Feeds:   cfg.Feeds,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.RefreshAll(ctx); err != nil {
		// Start anyway; the API reports the failure via /status and the
		// background loop keeps retrying.
		logger.Warn("initial refresh failed", zap.Error(err))
	}

	if *refreshInterval > 0 {
		go refreshLoop(ctx, s, *refreshInterval, logger)
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newMux(s),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func refreshLoop(ctx context.Context, s *store.Store, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				logger.Warn("background refresh failed", zap.Error(err))
			}
		}
	}
}

type api struct {
	store *store.Store
}

func newMux(s *store.Store) *http.ServeMux {
	a := &api{store: s}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", a.handleStatus)
	mux.HandleFunc("GET /api/stablecoins", a.handleList)
	mux.HandleFunc("GET /api/stablecoins/{address}", a.handleGet)
	mux.HandleFunc("GET /api/stablecoins/{address}/balance", a.handleBalance)
	mux.HandleFunc("POST /api/stablecoins", a.handleCreate)
	mux.HandleFunc("POST /api/stablecoins/{address}/mint", a.handleMint)
	mux.HandleFunc("POST /api/stablecoins/{address}/redeem", a.handleRedeem)
	return mux
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"owner":      a.store.Owner(),
		"loading":    a.store.Loading(),
		"cached":     len(a.store.Stablecoins()),
		"currencies": a.store.SupportedCurrencies(),
	}
	if err := a.store.Err(); err != nil {
		status["last_refresh_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *api) handleList(w http.ResponseWriter, r *http.Request) {
	coins := a.store.Stablecoins()
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		filtered := coins[:0]
		for _, coin := range coins {
			if coin.Symbol == symbol {
				filtered = append(filtered, coin)
			}
		}
		coins = filtered
	}
	writeJSON(w, http.StatusOK, coins)
}

func (a *api) handleGet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	coin, ok := a.store.Stablecoin(address)
	if !ok {
		// Cache miss: read through to the ledger.
		fetched, err := a.store.RefreshOne(r.Context(), address)
		if err != nil {
			writeError(w, err)
			return
		}
		coin = fetched
	}
	writeJSON(w, http.StatusOK, coin)
}

func (a *api) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	coin, ok := a.store.Stablecoin(address)
	if !ok {
		writeError(w, store.ErrUnknownEntity)
		return
	}

	if err := a.store.RefreshUserBalance(r.Context(), coin.Mint); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mint":    coin.Mint,
		"balance": a.store.UserBalance(coin.Mint),
	})
}

func (a *api) handleCreate(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := a.store.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (a *api) handleMint(w http.ResponseWriter, r *http.Request) {
	a.handleSupplyCommand(w, r, a.store.Mint)
}

func (a *api) handleRedeem(w http.ResponseWriter, r *http.Request) {
	a.handleSupplyCommand(w, r, a.store.Redeem)
}

func (a *api) handleSupplyCommand(w http.ResponseWriter, r *http.Request,
	cmd func(context.Context, string, decimal.Decimal) (*domain.Receipt, error)) {

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := cmd(r.Context(), r.PathValue("address"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway

	var verr *store.ValidationError
	var lerr *gateway.LedgerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrUnknownEntity), errors.Is(err, gateway.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &lerr):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
