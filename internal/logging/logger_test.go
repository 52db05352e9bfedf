package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureLogs(t *testing.T, level Severity) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := Level()
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetLevel(previous)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name  string
		want  Severity
		known bool
	}{
		{"error", SeverityError, true},
		{"WARNING", SeverityWarning, true},
		{" debug ", SeverityDebug, true},
		{"verbose", SeverityVerbose, true},
		{"off", SeverityNone, true},
		{"", SeverityInfo, false},
		{"chatty", SeverityInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := ParseSeverity(tt.name)
			if got != tt.want || known != tt.known {
				t.Errorf("ParseSeverity(%q) = %v, %v; want %v, %v", tt.name, got, known, tt.want, tt.known)
			}
		})
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	buf := captureLogs(t, SeverityInfo)
	l := New("codec")

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Errorf("failure %s", "x")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, "INFO    [codec] shown 2") {
		t.Errorf("info record missing: %q", out)
	}
	if !strings.Contains(out, "ERROR   [codec] failure x") {
		t.Errorf("error record missing: %q", out)
	}
}

func TestLogger_Enabled(t *testing.T) {
	captureLogs(t, SeverityDebug)
	l := New("detector")

	if !l.Enabled(SeverityDebug) {
		t.Error("debug should be enabled at debug level")
	}
	if l.Enabled(SeverityVerbose) {
		t.Error("verbose should be disabled at debug level")
	}
	if l.Enabled(SeverityNone) {
		t.Error("none is never enabled")
	}
}
