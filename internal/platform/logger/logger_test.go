package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("hidden", "k", "v")
	log.Warn("shown", "tracking_id", "TRK1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, `"tracking_id":"TRK1"`) {
		t.Fatalf("expected JSON attribute in output:\n%s", out)
	}
}
