package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")

	log, err := New("debug", "json", path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", log.GetLevel())
	}

	log.WithField("chain", "KSM").Info("poll")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"chain":"KSM"`) {
		t.Errorf("Expected JSON field in log, got %s", data)
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	log, err := New("loud", "text", "stderr")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info fallback, got %v", log.GetLevel())
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatal("Expected non-nil fallback entry")
	}
	e := Discard()
	if OrDefault(e) != e {
		t.Error("Expected entry to be returned unchanged")
	}
}
