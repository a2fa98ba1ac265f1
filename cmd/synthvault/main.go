package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"synthvault/config"
	"synthvault/crypto"
	"synthvault/engine"
	"synthvault/events"
	"synthvault/ledger"
	"synthvault/observability/logging"
	"synthvault/oracle"
	"synthvault/service"
	"synthvault/storage"
	"synthvault/token"
)

func main() {
	configPath := flag.String("config", "./synthvault.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SYNTHVAULT_ENV"))
	logger := logging.Setup("synthvault", env)

	if err := run(*configPath, env); err != nil {
		logger.Error("synthvault failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(configPath, env string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	store, err := storage.Open(filepath.Join(cfg.DataDir, "positions.db"), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	assets := make([]ledger.Asset, 0, len(cfg.Assets))
	feeds := make([]oracle.Feed, 0, len(cfg.Assets))
	tokens := make([]token.Token, 0, len(cfg.Assets))
	faucet := make(map[ledger.Asset]*token.Basic, len(cfg.Assets))
	for _, assetCfg := range cfg.Assets {
		price, err := assetCfg.InitialPrice()
		if err != nil {
			return err
		}
		asset := ledger.Asset(strings.TrimSpace(assetCfg.Symbol))
		collateral := token.NewBasic(string(asset))
		assets = append(assets, asset)
		feeds = append(feeds, oracle.NewManualFeed(price))
		tokens = append(tokens, collateral)
		faucet[asset] = collateral
	}
	stable := token.NewBasic("SVUSD")

	custodyKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	custody := custodyKey.PubKey().Address()

	eng, err := engine.New(assets, feeds, tokens, stable, custody, store, oracle.Config{MaxAge: cfg.Oracle.MaxAge()})
	if err != nil {
		return err
	}
	eng.SetPauses(cfg.Pauses)
	recorder := events.NewRecorder(cfg.EventBuffer)
	eng.SetEmitter(recorder)

	// Faucet minting stays enabled outside production so the flows are
	// exercisable against the bundled in-memory tokens.
	var faucetTokens map[ledger.Asset]*token.Basic
	if env != "production" {
		faucetTokens = faucet
	}
	srv, err := service.New(eng, recorder, faucetTokens, logging.Component(nil, "http"))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (custody %s)", cfg.ListenAddress, custody)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
