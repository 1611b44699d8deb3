package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"essay-grader/api/internal/logger"
)

// Run слушает addr до отмены ctx, затем аккуратно гасит сервер.
func Run(ctx context.Context, addr string, h http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("http: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("http: shutting down", "addr", addr)
	return srv.Shutdown(sctx)
}
