package log

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// TestLogger は出力を JSON 行としてメモリに貯める Logger。
// evaluate や CLI のテストが出力されたフィールドを検証するために使う。
// With で派生したロガーはバッファとロックを共有する。
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields []any
}

// NewTestLogger は level 以上を記録する TestLogger と、その出力先を返す
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{mu: &sync.Mutex{}, buffer: buffer, level: level}, buffer
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.log(LevelDebug, "DEBUG", msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.log(LevelInfo, "INFO", msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.log(LevelWarn, "WARN", msg, fields) }

// Error は先頭の error を ErrAttrKey に載せる
func (t *TestLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrAttrKey, err}, fields[1:]...)
		}
	}
	t.log(LevelError, "ERROR", msg, fields)
}

func (t *TestLogger) With(fields ...any) Logger {
	c := *t
	c.fields = append(append([]any(nil), t.fields...), fields...)
	return &c
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) log(level Level, name, msg string, fields []any) {
	if t.level > level {
		return
	}
	entry := map[string]any{"level": name, "message": msg}
	for _, kv := range [][]any{t.fields, fields} {
		for i := 0; i+1 < len(kv); i += 2 {
			value := kv[i+1]
			if err, ok := value.(error); ok {
				value = err.Error()
			}
			entry[fmt.Sprint(kv[i])] = value
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, name, msg))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Write(append(line, '\n'))
}

// Entries は記録された行をデコードして返す。数値は float64 になる。
func (t *TestLogger) Entries() ([]map[string]any, error) {
	t.mu.Lock()
	raw := strings.TrimSpace(t.buffer.String())
	t.mu.Unlock()

	var entries []map[string]any
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage は message を含む行があるかを返す
func (t *TestLogger) ContainsMessage(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField は key=value の行があるかを返す
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.Entries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

var _ Logger = (*TestLogger)(nil)
