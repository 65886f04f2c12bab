//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"fitplan/internal/config"
)

func TestWith(t *testing.T) {
	t.Run("should attach context fields", func(t *testing.T) {
		var buf bytes.Buffer
		base := newWithWriter(config.LogConfig{Level: "debug", Format: "json"}, false, &buf)

		ctx := WithTraceID(context.Background(), "tr-1")
		ctx = WithUserID(ctx, "u-1")
		ctx = WithSessID(ctx, "s-1")
		With(ctx, base).Info().Msg("hello")

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("invalid json log: %v (%s)", err, buf.String())
		}
		for k, want := range map[string]string{"trace_id": "tr-1", "user_id": "u-1", "session_id": "s-1"} {
			if line[k] != want {
				t.Errorf("expected %s=%s, got %v", k, want, line[k])
			}
		}
		if _, ok := line["payment_id"]; ok {
			t.Error("payment_id must be absent when not in context")
		}
	})

	t.Run("should honour the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := newWithWriter(config.LogConfig{Level: "warn"}, false, &buf)
		l.Info().Msg("dropped")
		if buf.Len() != 0 {
			t.Errorf("info written at warn level: %s", buf.String())
		}
	})
}

func TestRedact(t *testing.T) {
	t.Run("should keep a preview outside dev", func(t *testing.T) {
		if got := Redact("APP_USR-1234567890", false); got != "APP_...90" {
			t.Errorf("unexpected redaction %q", got)
		}
		if got := Redact("short", false); got != "***" {
			t.Errorf("unexpected redaction %q", got)
		}
		if got := Redact("visible", true); got != "visible" {
			t.Errorf("dev mode must not redact, got %q", got)
		}
	})
}
