package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer collects JSON log lines written by concurrent goroutines.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every buffered line, failing the test on malformed JSON.
func (b *TestLogBuffer) Entries(t *testing.T) []map[string]any {
	t.Helper()

	var entries []map[string]any
	sc := bufio.NewScanner(strings.NewReader(b.String()))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("malformed log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Find returns the first entry whose msg equals msg, or nil.
func (b *TestLogBuffer) Find(t *testing.T, msg string) map[string]any {
	t.Helper()
	for _, e := range b.Entries(t) {
		if e[slog.MessageKey] == msg {
			return e
		}
	}
	return nil
}

// NewTestLogger returns a debug-level JSON logger writing to a fresh buffer.
// The default logger is left alone, so parallel tests may use it.
func NewTestLogger(t *testing.T) (*slog.Logger, *TestLogBuffer) {
	t.Helper()

	buf := &TestLogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// AssertLogContains fails the test unless the raw log output contains content.
func AssertLogContains(t *testing.T, buf *TestLogBuffer, content string) {
	t.Helper()
	if logs := buf.String(); !strings.Contains(logs, content) {
		t.Errorf("log output does not contain %q:\n%s", content, logs)
	}
}
