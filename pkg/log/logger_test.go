package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"nonsense", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("test")
	l.SetWriter(&buf)
	l.SetColorize(false)
	l.SetLevel(WARN)

	l.Debug("should be dropped")
	l.Info("should be dropped")
	l.Warn("should appear")
	l.Error("also appears")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("output contains filtered messages: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("WARN message missing from output: %s", out)
	}
	if !strings.Contains(out, "also appears") {
		t.Errorf("ERROR message missing from output: %s", out)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("engine")
	l.SetWriter(&buf)
	l.SetColorize(false)

	l.Info("homed at %d steps", 4000)

	out := buf.String()
	if !strings.Contains(out, "[INFO ]") {
		t.Errorf("missing level marker: %s", out)
	}
	if !strings.Contains(out, "engine: homed at 4000 steps") {
		t.Errorf("missing prefix/message: %s", out)
	}
}

func TestFieldsSortedInTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New("engine")
	l.SetWriter(&buf)
	l.SetColorize(false)

	l.WithFields(Fields{"speed": 100, "accel": 200, "pos": 300}).Info("move")

	out := buf.String()
	if !strings.Contains(out, "{accel=200, pos=300, speed=100}") {
		t.Errorf("fields not sorted or missing: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("homing")
	l.SetWriter(&buf)
	l.SetFormat(FormatJSON)

	l.WithField("homed", true).Info("homing complete")

	var entry jsonEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%s)", err, buf.String())
	}
	if entry.Level != "INFO" {
		t.Errorf("Level = %s, want INFO", entry.Level)
	}
	if entry.Logger != "homing" {
		t.Errorf("Logger = %s, want homing", entry.Logger)
	}
	if entry.Message != "homing complete" {
		t.Errorf("Message = %s, want homing complete", entry.Message)
	}
	if entry.Fields["homed"] != true {
		t.Errorf("Fields[homed] = %v, want true", entry.Fields["homed"])
	}
}

func TestWithPrefixSharesSettings(t *testing.T) {
	var buf bytes.Buffer
	l := New("parent")
	l.SetWriter(&buf)
	l.SetColorize(false)
	l.SetLevel(ERROR)

	child := l.WithPrefix("child")
	child.Info("dropped")
	child.Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("child did not inherit level: %s", out)
	}
	if !strings.Contains(out, "child: kept") {
		t.Errorf("child prefix missing: %s", out)
	}
}

func TestWithErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := New("engine")
	l.SetWriter(&buf)
	l.SetColorize(false)

	l.WithError(errTest).Error("driver call failed")

	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("error field missing: %s", buf.String())
	}
}

var errTest = errString("boom")

type errString string

func (e errString) Error() string { return string(e) }
