package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"key": "value"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false, // won't log (below INFO)
		},
		{
			name:    "warn with err",
			level:   LevelWarn,
			message: "audit write failed",
			err:     errors.New("disk full"),
			want:    true,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	New(LevelDebug, &buf).Error("event passed through", Fields{"event_id": "abc"}, errors.New("boom"))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if entry.Level != "ERROR" {
		t.Errorf("Level = %v, want ERROR", entry.Level)
	}
	if entry.Error != "boom" {
		t.Errorf("Error = %v, want boom", entry.Error)
	}
	if entry.Fields["event_id"] != "abc" {
		t.Errorf("Fields[event_id] = %v, want abc", entry.Fields["event_id"])
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected entry to be newline terminated")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.minLevel, &buf)

			logger.log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil, nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("expected 4 log lines, got %d", lines)
	}
}
