package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"essay-grader/api/internal/logger"
)

type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

const (
	pollBaseDelay = 1 * time.Second
	pollMaxDelay  = 15 * time.Second
)

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// pollRetryDelay: пауза перед следующим getUpdates, в пределах [pollBaseDelay, pollMaxDelay].
// 429 берёт retry_after из ответа API, а если его нет, из текста ошибки.
func pollRetryDelay(err error) time.Duration {
	d := pollBaseDelay
	var apiErr *tgbotapi.Error
	var netErr net.Error
	switch {
	case err == nil:
		return 0
	case errors.As(err, &apiErr) && apiErr.Code == 429:
		d = 3 * time.Second
		if apiErr.RetryAfter > 0 {
			d = time.Duration(apiErr.RetryAfter) * time.Second
		}
	case strings.Contains(strings.ToLower(err.Error()), "too many requests"):
		d = 3 * time.Second
		if m := reRetryAfter.FindStringSubmatch(err.Error()); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				d = time.Duration(n) * time.Second
			}
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		d = 2 * time.Second
	}
	return min(max(d, pollBaseDelay), pollMaxDelay)
}

// Poll: устойчивый long polling с backoff; выходит по отмене ctx.
func Poll(ctx context.Context, bot Updater, log *logger.Logger, handle func(tgbotapi.Update)) {
	offset := 0
	for {
		if ctx.Err() != nil {
			log.Info("polling: context cancelled")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := pollRetryDelay(err)
			log.Warn("polling error", "err", err, "retry_in", d)
			if !sleep(ctx, d) {
				return
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
		if len(updates) == 0 && !sleep(ctx, 200*time.Millisecond) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
