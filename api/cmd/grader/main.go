package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"essay-grader/api/internal/app"
	"essay-grader/api/internal/config"
	"essay-grader/api/internal/handle"
	"essay-grader/api/internal/httpserver"
	"essay-grader/api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// логгера ещё нет
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "err", err)
	}
	defer a.Close()

	h := handle.New(a.Grader, a.Profiles, log)
	h.BatchConcurrency = cfg.BatchConcurrency
	h.Ping = a.Ping

	log.Info("essay grader starting", "engines", a.Engines.Names(), "default_llm", cfg.DefaultLLM)
	if err := httpserver.Run(ctx, ":"+cfg.Port, h.Routes(), log); err != nil {
		log.Error("http server failed", "err", err)
	}
}
