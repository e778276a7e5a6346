package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"verbose": slog.LevelDebug,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestComponentTagsRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Component(NewWithWriter(&buf, "warn"), "publish")
	log.Info("hidden")
	log.Warn("shown", "post_id", "p1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "component=publish") || !strings.Contains(out, "post_id=p1") {
		t.Errorf("unexpected output: %s", out)
	}
	if Component(nil, "x") != nil {
		t.Errorf("nil logger must stay nil")
	}
}
