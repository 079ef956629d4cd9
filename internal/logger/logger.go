package logger

import (
	"context"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/projectledger/projectledger/internal/config"
	"github.com/projectledger/projectledger/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const fluentdTag = "projectledger.logs"

// Logger wraps zap.SugaredLogger and mirrors structured entries to Fluentd when configured.
type Logger struct {
	*zap.SugaredLogger
	fluentdLogger *fluent.Fluent
	serviceName   string
	// contextFields are attached by WithContext and forwarded with every Fluentd record
	contextFields map[string]interface{}
}

// NewLogger builds the process logger. Debug level switches to zap's development encoder.
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Logging.Level == types.LogLevelDebug {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(string(cfg.Logging.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.DisableStacktrace = true

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	sugar := zapLogger.Sugar()

	return &Logger{
		SugaredLogger: sugar,
		fluentdLogger: newFluentd(cfg.Logging, sugar),
		serviceName:   string(cfg.Deployment.Mode),
	}, nil
}

// newFluentd returns nil when forwarding is off or cannot be set up; stdout logging continues.
func newFluentd(cfg config.LoggingConfig, sugar *zap.SugaredLogger) *fluent.Fluent {
	if !cfg.FluentdEnabled {
		return nil
	}
	if cfg.FluentdHost == "" || cfg.FluentdPort <= 0 {
		sugar.Warnw("fluentd enabled without host and port, logging to stdout only")
		return nil
	}

	f, err := fluent.New(fluent.Config{
		FluentHost:   cfg.FluentdHost,
		FluentPort:   cfg.FluentdPort,
		Async:        true,
		BufferLimit:  8 * 1024 * 1024,
		WriteTimeout: 3 * time.Second,
		RetryWait:    500,
		MaxRetry:     5,
	})
	if err != nil {
		sugar.Warnw("failed to initialize fluentd, logging to stdout only", "error", err)
		return nil
	}

	sugar.Infow("fluentd forwarding enabled", "host", cfg.FluentdHost, "port", cfg.FluentdPort)
	return f
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Sync flushes zap buffers and closes the fluentd connection.
func (l *Logger) Sync() error {
	if l.fluentdLogger != nil {
		_ = l.fluentdLogger.Close()
	}
	return l.SugaredLogger.Sync()
}

// WithContext returns a child logger tagged with the request, tenant and user of ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := map[string]interface{}{
		"request_id": types.GetRequestID(ctx),
		"tenant_id":  types.GetTenantID(ctx),
		"user_id":    types.GetUserID(ctx),
	}

	return &Logger{
		SugaredLogger: l.SugaredLogger.With(
			"request_id", fields["request_id"],
			"tenant_id", fields["tenant_id"],
			"user_id", fields["user_id"],
		),
		fluentdLogger: l.fluentdLogger,
		serviceName:   l.serviceName,
		contextFields: fields,
	}
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
	l.forward("debug", msg, keysAndValues)
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
	l.forward("info", msg, keysAndValues)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
	l.forward("warning", msg, keysAndValues)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
	l.forward("error", msg, keysAndValues)
}

func (l *Logger) forward(level, msg string, keysAndValues []interface{}) {
	if l.fluentdLogger == nil {
		return
	}

	record := l.keysAndValuesToMap(keysAndValues...)
	for k, v := range l.contextFields {
		record[k] = v
	}
	record["level"] = level
	record["message"] = msg
	record["service"] = l.serviceName
	record["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	if err := l.fluentdLogger.Post(fluentdTag, record); err != nil {
		l.SugaredLogger.Warnw("failed to send log to fluentd", "error", err)
	}
}

// keysAndValuesToMap pairs up zap-style variadic fields, skipping non-string keys and a
// dangling final key.
func (l *Logger) keysAndValuesToMap(keysAndValues ...interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
