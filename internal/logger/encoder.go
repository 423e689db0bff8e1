package logger

import (
	"fmt"
	"sort"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// timeLayout is ISO 8601 with millisecond precision and a numeric offset.
const timeLayout = "2006-01-02T15:04:05.000-0700"

//nolint:gochecknoglobals // Shared buffer pool, as zap's own encoders do.
var bufPool = buffer.NewPool()

// lineEncoder renders entries in the established single-line log format:
//
//	[XID:<id> PID:<pid>] <timestamp> [LEVEL] [host] [user] - message k=v ...
//
// Structured fields are appended as sorted key=value pairs so the line stays
// grep-friendly for the existing log tooling.
type lineEncoder struct {
	*zapcore.MapObjectEncoder

	// session supplies the identity fields of the line prefix.
	session Session
}

// newLineEncoder creates an encoder stamping the provided session identity.
func newLineEncoder(session Session) *lineEncoder {
	return &lineEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		session:          session,
	}
}

// Clone returns a copy carrying the accumulated With-fields.
//
//nolint:ireturn,nolintlint // Returning zapcore.Encoder is required by zap.
func (e *lineEncoder) Clone() zapcore.Encoder {
	clone := newLineEncoder(e.session)
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}

	return clone
}

// EncodeEntry renders one entry into a pooled buffer.
//
//nolint:gocritic // EncodeEntry signature is fixed by zapcore.Encoder.
func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := bufPool.Get()

	line.AppendString("[XID:")
	line.AppendString(e.session.XID)
	line.AppendString(" PID:")
	line.AppendInt(int64(e.session.PID))
	line.AppendString("] ")
	line.AppendString(ent.Time.Format(timeLayout))
	line.AppendString(" [")
	line.AppendString(levelTag(ent.Level))
	line.AppendString("] [")
	line.AppendString(e.session.Hostname)
	line.AppendString("] [")
	line.AppendString(e.session.Username)
	line.AppendString("] - ")

	if ent.LoggerName != "" {
		line.AppendString(ent.LoggerName)
		line.AppendString(": ")
	}

	line.AppendString(ent.Message)

	e.appendFields(line, fields)
	line.AppendString(zapcore.DefaultLineEnding)

	return line, nil
}

// appendFields merges accumulated and per-entry fields into k=v suffixes.
func (e *lineEncoder) appendFields(line *buffer.Buffer, fields []zapcore.Field) {
	if len(e.Fields) == 0 && len(fields) == 0 {
		return
	}

	merged := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		merged.Fields[k] = v
	}

	for _, f := range fields {
		f.AddTo(merged)
	}

	keys := make([]string, 0, len(merged.Fields))
	for k := range merged.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		line.AppendByte(' ')
		line.AppendString(k)
		line.AppendByte('=')
		fmt.Fprintf(line, "%v", merged.Fields[k])
	}
}

// levelTag maps zap levels to the fixed five-character tags of the log format.
func levelTag(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.InfoLevel:
		return "INFO "
	case zapcore.WarnLevel:
		return "WARN "
	case zapcore.ErrorLevel:
		return "ERROR"
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return "CRIT "
	default:
		return l.CapitalString()
	}
}
