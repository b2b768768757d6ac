// Package main tails the stablecoin program over WebSocket and keeps a live
// cache in sync, logging every applied change. Useful for watching issuance
// activity without running the full HTTP service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stablefun/internal/cache"
	"stablefun/internal/config"
	"stablefun/internal/gateway"
	"stablefun/internal/oracle"
	"stablefun/internal/solana"
	"stablefun/internal/store"
	"stablefun/internal/wallet"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	keypairPath := flag.String("keypair", "", "Path to wallet keypair file (overrides config)")
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
		logger.Fatal("initial refresh failed", zap.Error(err))
	}
	logger.Info("initial snapshot loaded", zap.Int("stablecoins", len(s.Stablecoins())))

	ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, nil)
	if err != nil {
		logger.Fatal("websocket connect", zap.Error(err))
	}
	defer ws.Close()

	updates, err := ws.SubscribeProgram(ctx, cfg.ProgramID)
	if err != nil {
		logger.Fatal("subscribe", zap.Error(err))
	}
	logger.Info("watching program", zap.String("program", cfg.ProgramID))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("subscription closed")
				return
			}
			before, _ := s.Stablecoin(update.Pubkey)
			s.ApplyAccountUpdate(ctx, update)
			after, found := s.Stablecoin(update.Pubkey)
			if !found {
				continue
			}

			fields := []zap.Field{
				zap.String("address", update.Pubkey),
				zap.String("symbol", after.Symbol),
				zap.Uint64("supply", after.TotalSupply),
				zap.Int64("slot", update.Slot),
			}
			if before != nil {
				fields = append(fields, zap.Uint64("previous_supply", before.TotalSupply))
			}
			logger.Info("stablecoin updated", fields...)
		}
	}
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
