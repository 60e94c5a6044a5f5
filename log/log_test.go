package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelInfo)
	lg.Info("tuple applied", "index", 0, "authority", "0xabc")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["msg"] != "tuple applied" {
		t.Fatalf("msg %q, want %q", entry["msg"], "tuple applied")
	}
	if entry["index"] != float64(0) {
		t.Fatalf("index attribute missing, got %v", entry["index"])
	}
}

func TestModuleAttribute(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelInfo).Module("authcheck")
	lg.Info("hello")

	if !strings.Contains(buf.String(), `"module":"authcheck"`) {
		t.Fatalf("module attribute missing: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelWarn)
	lg.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info log emitted below level: %s", buf.String())
	}
	lg.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn log suppressed at warn level")
	}
}

func TestDefaultLogger(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	var buf bytes.Buffer
	SetDefault(New(&buf, slog.LevelDebug))
	Debug("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Fatal("package-level Debug did not reach the default logger")
	}

	// SetDefault(nil) must keep the previous logger.
	SetDefault(nil)
	if Default() == nil {
		t.Fatal("SetDefault(nil) cleared the default logger")
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelInfo).With("chain", 1)
	lg.Info("ctx")
	if !strings.Contains(buf.String(), `"chain":1`) {
		t.Fatalf("context attribute missing: %s", buf.String())
	}
}
