package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxLoggedSQL bounds the statement text; bulk line inserts can be very long
const maxLoggedSQL = 2000

// GormLogger routes GORM output to zap, tagged with the request and trace ids
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow; zero disables it
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = threshold }
}

func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.ignoreRecordNotFoundError = ignore }
}

func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{
		logger:                    zapLogger.Named("gorm"),
		logLevel:                  level,
		slowThreshold:             200 * time.Millisecond,
		ignoreRecordNotFoundError: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(enabledAt gormlogger.LogLevel, level zapcore.Level, msg string, data []any) {
	if l.logLevel < enabledAt {
		return
	}
	l.logger.Log(level, fmt.Sprintf(msg, data...))
}

// Trace implements gormlogger.Interface. Unique violations are logged at debug:
// the numbering retry handles them and the service reports the final outcome.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	fields := func() []zap.Field {
		sql, rows := fc()
		if len(sql) > maxLoggedSQL {
			sql = sql[:maxLoggedSQL] + "..."
		}
		fields := []zap.Field{zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql)}
		if requestID := GetRequestID(ctx); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if traceID := GetTraceID(ctx); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		return fields
	}

	switch {
	case err != nil && l.logLevel >= gormlogger.Error:
		switch {
		case l.ignoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound):
		case errors.Is(err, gorm.ErrDuplicatedKey):
			l.logger.Debug("SQL unique violation", append(fields(), zap.Error(err))...)
		default:
			l.logger.Error("SQL Error", append(fields(), zap.Error(err))...)
		}
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		l.logger.Warn(fmt.Sprintf("SLOW SQL >= %v", l.slowThreshold), fields()...)
	case l.logLevel >= gormlogger.Info:
		l.logger.Debug("SQL Query", fields()...)
	}
}

// MapGormLogLevel maps the application log level to GORM's; debug and info show every statement
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
