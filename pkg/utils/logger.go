package utils

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures InitLogger.
type LogConfig struct {
	// Level is one of debug/info/warn(ing)/error/fatal, spelled all
	// lower-case or all upper-case. Anything else defaults to info.
	Level string
	// Format is "json" or "text". Defaults to json.
	Format string
	// Output is a file path to log to; empty means stderr. A file that
	// cannot be opened falls back to stderr rather than failing.
	Output string
	// Development adds zap.Development() (DPanic logs panic) and caller
	// info on top of the chosen format; it adds no stack traces.
	Development bool
}

// Logger wraps *zap.Logger with a cached sugared logger and the
// package's field-constructor helpers.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// InitLogger builds a Logger from cfg, never returning nil: invalid
// levels fall back to info and an unopenable output file falls back to
// stderr.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	var encoder zapcore.Encoder
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "text" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	sink := zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	var opts []zap.Option
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug", "DEBUG":
		return zapcore.DebugLevel
	case "info", "INFO":
		return zapcore.InfoLevel
	case "warn", "WARN", "warning", "WARNING":
		return zapcore.WarnLevel
	case "error", "ERROR":
		return zapcore.ErrorLevel
	case "fatal", "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child Logger with the given fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// WithComponent tags the logger with a component name (e.g. "matching",
// "lifecycle", "directory").
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithExchange tags the logger with an upstream exchange/marketplace
// name, kept from the teacher's field set; nothing in this module calls
// it.
func (l *Logger) WithExchange(name string) *Logger {
	return l.With(Exchange(name))
}

// WithSymbol tags the logger with a trading symbol or, in this module,
// a Steam item set key string.
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// WithPairID tags the logger with a numeric identifier (pair id, round
// number, or similar).
func (l *Logger) WithPairID(id int) *Logger {
	return l.With(PairID(id))
}

// WithSteamID tags the logger with a bot's steam_id (§3).
func (l *Logger) WithSteamID(steamID uint64) *Logger {
	return l.With(zap.Uint64("steam_id", steamID))
}

// Sugar returns the cached SugaredLogger.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// ============================================================
// Global logger
// ============================================================

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// GetGlobalLogger returns the process-wide logger, lazily initializing
// it with default settings on first use.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// InitGlobalLogger builds a Logger from cfg and installs it as the
// global logger.
func InitGlobalLogger(cfg LogConfig) *Logger {
	l := InitLogger(cfg)
	SetGlobalLogger(l)
	return l
}

// SetGlobalLogger installs l as the process-wide logger.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// L is shorthand for GetGlobalLogger.
func L() *Logger {
	return GetGlobalLogger()
}

func Debug(msg string, fields ...zap.Field)  { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)   { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)   { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field)  { GetGlobalLogger().Error(msg, fields...) }

func Debugf(template string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(template, args...) }
func Infof(template string, args ...interface{})  { GetGlobalLogger().sugar.Infof(template, args...) }
func Warnf(template string, args ...interface{})  { GetGlobalLogger().sugar.Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(template, args...) }

// ============================================================
// Field constructors
// ============================================================

func Exchange(name string) zap.Field   { return zap.String("exchange", name) }
func Symbol(symbol string) zap.Field   { return zap.String("symbol", symbol) }
func PairID(id int) zap.Field          { return zap.Int("pair_id", id) }
func OrderID(id string) zap.Field      { return zap.String("order_id", id) }
func Price(p float64) zap.Field        { return zap.Float64("price", p) }
func Volume(v float64) zap.Field       { return zap.Float64("volume", v) }
func Spread(s float64) zap.Field       { return zap.Float64("spread", s) }
func PNL(pnl float64) zap.Field        { return zap.Float64("pnl", pnl) }
func Side(side string) zap.Field       { return zap.String("side", side) }
func State(state string) zap.Field     { return zap.String("state", state) }
func Latency(ms float64) zap.Field     { return zap.Float64("latency_ms", ms) }
func RequestID(id string) zap.Field    { return zap.String("request_id", id) }
func UserID(id int) zap.Field          { return zap.Int("user_id", id) }
func Component(name string) zap.Field  { return zap.String("component", name) }

// Re-exported constructors so callers need only import pkg/utils.
func String(key, value string) zap.Field          { return zap.String(key, value) }
func Int(key string, value int) zap.Field         { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field     { return zap.Int64(key, value) }
func Float64(key string, value float64) zap.Field { return zap.Float64(key, value) }
func Bool(key string, value bool) zap.Field       { return zap.Bool(key, value) }
func Err(err error) zap.Field                     { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

// fieldsToInterface flattens zap fields into alternating key/value pairs,
// preserving field order, for callers that need the sugared-logger
// calling convention.
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		enc := zapcore.NewMapObjectEncoder()
		f.AddTo(enc)
		out = append(out, f.Key, enc.Fields[f.Key])
	}
	return out
}
