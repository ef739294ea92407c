package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// TestSetup_JSONOutput はログがJSON形式で出力されることを検証する。
func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("stock adjusted", slog.Int64("sweet_id", 42), slog.Int("delta", -1))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "stock adjusted" {
		t.Errorf("msg = %v, want %q", entry["msg"], "stock adjusted")
	}
	if entry["sweet_id"] != float64(42) {
		t.Errorf("sweet_id = %v, want 42", entry["sweet_id"])
	}
}

// TestSetup_DebugSuppressed はInfoレベル設定でDebugが抑制されることを検証する。
func TestSetup_DebugSuppressed(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("should not appear")

	if buf.Len() != 0 {
		t.Errorf("debug log was emitted: %s", buf.String())
	}
}
