package app

import (
	"context"
	"os/signal"
	"syscall"
)

// Serve builds the App for cfg and serves until SIGINT or SIGTERM.
// It returns an error instead of calling os.Exit to keep defers effective.
func Serve(ctx context.Context, cfg Config) error {
	log := NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Error("server.init.fail", "err", err)
		return err
	}
	return a.Run(ctx)
}
