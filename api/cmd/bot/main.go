package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"essay-grader/api/internal/app"
	"essay-grader/api/internal/config"
	"essay-grader/api/internal/httpserver"
	"essay-grader/api/internal/logger"
	"essay-grader/api/internal/telegram"
	"essay-grader/api/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()
	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "err", err)
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram init failed", "err", err)
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:            bot,
		Grader:         a.Grader,
		Log:            log,
		Engines:        a.Engines.Names(),
		DefaultClassID: cfg.DefaultClassID,
	}

	mux := chi.NewRouter()
	mux.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.Ping(req.Context()); err != nil {
			http.Error(w, "db: not ok\n"+err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, addr, bot, r, mux, webhookURL, log)
		return
	}
	startPollingMode(ctx, addr, bot, r, mux, log)
}

func startWebhookMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, mux chi.Router, baseURL string, log *logger.Logger) {
	// секретный путь вебхука
	path := "/webhook/" + util.SHA256Hex(bot.Token)[:16]
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		log.Fatal("webhook config failed", "err", err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal("webhook register failed", "err", err)
	}

	mux.Post(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			log.Warn("webhook: bad update", "err", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		// отвечаем Telegram сразу, проверка эссе может занять минуты
		go r.HandleUpdate(ctx, *upd)
		w.WriteHeader(http.StatusOK)
	})

	log.Info("telegram: webhook mode")
	if err := httpserver.Run(ctx, addr, mux, log); err != nil {
		log.Error("http server failed", "err", err)
	}
}

func startPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, mux chi.Router, log *logger.Logger) {
	// healthz нужен платформе и в режиме polling
	go func() {
		if err := httpserver.Run(ctx, addr, mux, log); err != nil {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("telegram: polling mode")
	telegram.Poll(ctx, bot, log, func(upd tgbotapi.Update) {
		go r.HandleUpdate(ctx, upd)
	})
}
