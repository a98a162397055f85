package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"nestchain/config"
	"nestchain/core/state"
	"nestchain/crypto"
	"nestchain/native/badge"
	"nestchain/native/referral"
	"nestchain/native/savings"
	"nestchain/native/upgrade"
	"nestchain/observability/logging"
	"nestchain/rpc"
	"nestchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("NEST_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("nestd", env, logging.Options{
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	admin, err := crypto.DecodeAddress(cfg.AdminAddress)
	if err != nil {
		logger.Error("Invalid admin address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	custody := crypto.ModuleAddress("savings")

	engine := savings.NewEngine(custody, admin)
	engine.SetState(manager)
	engine.SetPauses(config.NewPauses(cfg.PausedModules))

	badges := badge.NewRegistry(admin)
	badges.SetState(manager)
	if _, ok, err := badges.AuthorizedMinter(); err != nil {
		logger.Error("Failed to read badge minter", slog.Any("error", err))
		os.Exit(1)
	} else if !ok {
		// Fresh ledger: point the mint capability at module custody so
		// milestone mints work from the first withdrawal.
		if err := badges.SetAuthorizedMinter(admin, custody); err != nil {
			logger.Error("Failed to authorize badge minter", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Authorized badge minter", slog.String("minter", custody.String()))
	}
	engine.SetBadgeMinter(badge.NewMinter(badges, custody), cfg.BadgeThreshold)

	referrals := referral.NewRegistry(admin)
	referrals.SetState(manager)

	upgrades := upgrade.NewRegistry(admin)
	upgrades.SetState(manager)

	registry := prometheus.NewRegistry()
	server := rpc.NewServer(manager, engine, badges, referrals, upgrades, logger, registry)

	logger.Info("nestd starting",
		slog.String("rpc", cfg.RPCAddress),
		slog.String("custody", custody.String()),
		slog.String("admin", admin.String()),
	)
	if err := server.Start(cfg.RPCAddress, registry); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
