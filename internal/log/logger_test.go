package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerParsesLevelCaseInsensitively(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("DEBUG", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger("chatty", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger("info", &buf)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}

	logger.WithField("article_id", 7).Info("article created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "article created" {
		t.Fatalf("expected msg field, got %v", entry["msg"])
	}
	if entry["article_id"] != float64(7) {
		t.Fatalf("expected article_id field, got %v", entry["article_id"])
	}
}

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	t.Parallel()

	hub, flush, err := InitSentry(Discard(), SentrySettings{})
	if err != nil {
		t.Fatalf("InitSentry returned error: %v", err)
	}
	if hub != nil {
		t.Fatalf("expected nil hub without DSN")
	}
	flush()
}
