package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/blockchain"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/config"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/console"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/logging"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/pkg/version"
)

func main() {
	parsed, err := config.ParseFlags("eventchain", os.Args[1:], os.Stdout)
	if err != nil {
		os.Exit(exitWithError(err))
	}
	cfg := parsed.Config

	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	chain, err := blockchain.New(blockchain.Options{
		Difficulty:       cfg.Chain.Difficulty,
		Algorithm:        cfg.Chain.HashAlgorithm(),
		MaxAppendRetries: cfg.Chain.MaxAppendRetries,
		Logger:           log,
	})
	if err != nil {
		os.Exit(exitWithError(err))
	}

	v := version.Get()
	log.Info("eventchain starting",
		"version", v.Version,
		"commit", v.Commit,
		"difficulty", chain.Difficulty(),
		"hash", chain.Algorithm().String(),
		"config", parsed.Path,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	con := console.New(chain, console.PtermUI{}, os.Stdout, log, console.Options{
		MineTimeout: cfg.Chain.MineTimeout,
	})
	if cfg.Console.Banner {
		con.Banner()
	}

	if err := con.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		os.Exit(exitWithError(err))
	}
	log.Info("shutdown complete", "blocks", chain.Len())
}

func exitWithError(err error) int {
	_, _ = os.Stderr.WriteString("eventchain error: " + err.Error() + "\n")
	return 1
}
