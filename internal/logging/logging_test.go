package logging

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestLevels(t *testing.T) {
	cases := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{" info ", log.InfoLevel},
		{"", log.WarnLevel},
		{"verbose", log.WarnLevel},
	}
	for _, c := range cases {
		if got := New(c.in).GetLevel(); got != c.want {
			t.Errorf("New(%q) level = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOutputHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("warn", &buf)
	l.Info("hidden")
	l.WithField("country", "Alpha").Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, "country=Alpha") || !strings.Contains(out, "shown") {
		t.Fatalf("missing warn line: %s", out)
	}
}
