package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global is the shared logger instance used throughout the application.
	//nolint:gochecknoglobals // Logger is used all over the project, so it's okay.
	global *zap.SugaredLogger
	// defaultLevel is the minimum log level for messages to be processed.
	//nolint:gochecknoglobals //  If the logging level is not set, the application will have no logs.
	defaultLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
)

func init() { //nolint:gochecknoinits // If the logging level is not set, the application will have no logs.
	SetLogger(New(defaultLevel))
}

// Config describes one invocation's logging setup.
type Config struct {
	// Session identity stamped on every line.
	Session Session
	// Verbosity is the -v count controlling the console level.
	Verbosity int
	// Quiet drops the console core entirely, overriding Verbosity. The
	// file core still records, so quiet runs remain auditable.
	Quiet bool
	// FilePath is the log file location. Empty disables the file sink.
	FilePath string
	// FileMaxBytes rotates the file past this size. Zero disables rotation.
	FileMaxBytes int64
}

// New creates a fallback *zap.SugaredLogger writing plain console lines to
// stderr. It is used before Configure runs, so early startup failures are
// still visible. Stdout is reserved for the status records the tool prints.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = defaultLevel
	}

	//nolint:exhaustruct // I'm okay with default encoder configuration values.
	defaultEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})

	core := zapcore.NewCore(
		defaultEncoder,
		zapcore.AddSync(os.Stderr),
		level,
	)

	return zap.New(core, options...).Sugar()
}

// Configure builds the invocation logger: a console core on stderr at the
// verbosity-derived level, teed with an optional rotating file core that
// records at least info so the audit trail survives quiet console settings.
// It installs the result as the global logger and returns it together with
// a close function flushing and releasing the file sink.
func Configure(cfg Config) (*zap.SugaredLogger, func(), error) {
	consoleLevel := VerbosityLevel(cfg.Verbosity)

	cores := make([]zapcore.Core, 0, 2) //nolint:mnd // Console and file.

	if !cfg.Quiet {
		cores = append(cores, zapcore.NewCore(
			newLineEncoder(cfg.Session),
			zapcore.AddSync(os.Stderr),
			consoleLevel,
		))
	}

	closer := func() {}

	if cfg.FilePath != "" {
		sink, err := NewRotatingFile(cfg.FilePath, cfg.FileMaxBytes)
		if err != nil {
			return nil, nil, err
		}

		fileLevel := zapcore.InfoLevel
		if !cfg.Quiet && consoleLevel < fileLevel {
			fileLevel = consoleLevel
		}

		cores = append(cores, zapcore.NewCore(
			newLineEncoder(cfg.Session),
			sink,
			fileLevel,
		))

		closer = func() {
			sink.Close() //nolint:errcheck,gosec // Nothing sensible to do with a close error on exit.
		}
	}

	l := zap.New(zapcore.NewTee(cores...)).Sugar()

	defaultLevel.SetLevel(consoleLevel)
	SetLogger(l)

	return l, closer, nil
}

// VerbosityLevel maps the -v flag count to the application console level.
func VerbosityLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.ErrorLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// DriverVerbosityLevel maps the -v flag count to the browser driver level.
// The driver is noisier than the application, so it is kept one notch
// quieter until -vvv asks for full protocol detail.
func DriverVerbosityLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 1:
		return zapcore.ErrorLevel
	case verbosity == 2: //nolint:mnd // The -vv step.
		return zapcore.WarnLevel
	default:
		return zapcore.DebugLevel
	}
}

// ParseLogLevel converts string input to zap log level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "dpanic":
		return zapcore.DPanicLevel, true
	case "panic":
		return zapcore.PanicLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Level returns the current logging level of the global logger.
func Level() zapcore.Level {
	return defaultLevel.Level()
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger sets the global logger.
// This function is not thread-safe.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// SetLevel sets the log level for the global logger.
func SetLevel(level zapcore.Level) {
	//nolint: errcheck // No need to check the error here.
	defer global.Sync()

	defaultLevel.SetLevel(level)
}

// Debug writes a debug level message using the logger from the context.
func Debug(ctx context.Context, args ...any) {
	FromContext(ctx).Debug(args...)
}

// Debugf writes a formatted debug level message using the logger from the context.
func Debugf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Debugf(format, args...)
}

// DebugKV writes a message and key-value pairs
// at the debug level using the logger from the context.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info writes an information level message using the logger from the context.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// Infof writes a formatted information level message using the logger from the context.
func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Infof(format, args...)
}

// InfoKV writes a message and key-value pairs
// at the information level using the logger from the context.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// Warn writes a warning level message using the logger from the context.
func Warn(ctx context.Context, args ...any) {
	FromContext(ctx).Warn(args...)
}

// Warnf writes a formatted warning level message using the logger from the context.
func Warnf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Warnf(format, args...)
}

// WarnKV writes a message and key-value pairs
// at the warning level using the logger from the context.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// Error writes an error level message using the logger from the context.
func Error(ctx context.Context, args ...any) {
	FromContext(ctx).Error(args...)
}

// Errorf writes a formatted error level message using the logger from the context.
func Errorf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Errorf(format, args...)
}

// ErrorKV writes a message and key-value pairs
// at the error level using the logger from the context.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}

// Fatal writes a fatal error level message
// using the logger from the context and then calls os.Exit(1).
func Fatal(ctx context.Context, args ...any) {
	FromContext(ctx).Fatal(args...)
}

// Fatalf writes a formatted fatal error level message
// using the logger from the context and then calls os.Exit(1).
func Fatalf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Fatalf(format, args...)
}

// FatalKV writes a message and key-value pairs
// at the fatal error level using the logger from the context
// and then calls os.Exit(1).
func FatalKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Fatalw(message, kvs...)
}
