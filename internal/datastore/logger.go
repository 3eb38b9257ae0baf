package datastore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold is the duration after which a query is logged as slow.
// One second accommodates migration batch statements without false positives.
const slowQueryThreshold = time.Second

// gormSlogAdapter routes GORM's logger interface onto slog.
type gormSlogAdapter struct {
	logger *slog.Logger
	level  gormlogger.LogLevel
}

func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	return &gormSlogAdapter{
		logger: logger.With("subsystem", "gorm"),
		level:  gormlogger.Warn,
	}
}

func (g *gormSlogAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormSlogAdapter) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logger.InfoContext(ctx, msg, "args", args)
	}
}

func (g *gormSlogAdapter) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logger.WarnContext(ctx, msg, "args", args)
	}
}

func (g *gormSlogAdapter) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logger.ErrorContext(ctx, msg, "args", args)
	}
}

func (g *gormSlogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !ignorableTraceError(err) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.logger.ErrorContext(ctx, "query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logger.WarnContext(ctx, "slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.logger.InfoContext(ctx, "query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

// ignorableTraceError filters expected conditions out of the error log.
func ignorableTraceError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
