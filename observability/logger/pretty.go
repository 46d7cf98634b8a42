package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // static palette shared by all encoders
var (
	faintText = color.New(color.Faint).SprintFunc()
	keyText   = color.New(color.FgHiCyan).SprintFunc()
	valueText = color.New(color.FgHiWhite, color.Faint).SprintFunc()

	levelColors = map[zapcore.Level]*color.Color{
		zapcore.DebugLevel:  color.New(color.Bold, color.FgHiBlue),
		zapcore.InfoLevel:   color.New(color.Bold, color.FgGreen),
		zapcore.WarnLevel:   color.New(color.Bold, color.FgYellow),
		zapcore.ErrorLevel:  color.New(color.Bold, color.FgRed),
		zapcore.DPanicLevel: color.New(color.Bold, color.FgHiRed),
		zapcore.PanicLevel:  color.New(color.Bold, color.FgHiRed),
		zapcore.FatalLevel:  color.New(color.Bold, color.FgMagenta),
	}
)

// prettyEncoder renders zap's JSON output as a colored header line followed by
// indented fields.
type prettyEncoder struct {
	zapcore.Encoder
}

func (e *prettyEncoder) Clone() zapcore.Encoder {
	return &prettyEncoder{Encoder: e.Encoder.Clone()}
}

func newPrettyLogger(cfg *zap.Config) *zap.Logger {
	enc := &prettyEncoder{Encoder: zapcore.NewJSONEncoder(cfg.EncoderConfig)}
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), cfg.Level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(os.Stderr)))
}

func (e *prettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}

	raw := append([]byte(nil), buf.Bytes()...)
	buf.Reset()

	var payload map[string]any
	if err = json.Unmarshal(bytes.TrimSpace(raw), &payload); err != nil {
		// not JSON, pass through untouched
		_, _ = buf.Write(raw)
		return buf, nil
	}

	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	buf.AppendString(faintText("["+ts.Format(time.DateTime)+"]") + " ")
	buf.AppendString(levelLabel(entry.Level))
	if entry.LoggerName != "" {
		buf.AppendString(" " + faintText(entry.LoggerName))
	}
	if entry.Message != "" {
		buf.AppendString(" " + entry.Message)
	}
	buf.AppendByte('\n')

	writeFields(buf, payload)
	return buf, nil
}

func writeFields(buf *buffer.Buffer, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		switch k {
		case timeKey, levelKey, messageKey, nameKey:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		val, err := json.MarshalIndent(payload[k], "  ", "  ")
		if err != nil {
			continue
		}
		buf.AppendString("  " + keyText(k) + ": " + valueText(string(val)) + "\n")
	}
}

func levelLabel(lvl zapcore.Level) string {
	label := strings.ToUpper(lvl.String())
	if c, ok := levelColors[lvl]; ok {
		return c.Sprint(label)
	}
	return label
}
