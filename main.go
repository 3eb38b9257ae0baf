package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/voicevault/voicevault/cmd"
	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/logging"
	"github.com/voicevault/voicevault/internal/runtime"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading settings: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(parseLevel(settings.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rctx := &runtime.Context{Settings: settings}
	err = cmd.RootCommand(rctx).ExecuteContext(ctx)

	// Force-clear progress tracking even when a command failed; cobra skips
	// the post-run hooks on error.
	if rctx.Engine != nil {
		rctx.Engine.Close()
	}
	if rctx.CloseLog != nil {
		_ = rctx.CloseLog()
	}
	if err != nil {
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
