package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Error("Logger is nil after initialization")
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitJSONFormat(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir, Format: "json", Level: "info"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	Info("habit completed", "user", "u1")
	Debug("should be filtered at info level")

	data, err := os.ReadFile(filepath.Join(configDir, "logs", "daystreak.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"msg":"habit completed"`) {
		t.Errorf("expected json log line, got %q", content)
	}
	if strings.Contains(content, "should be filtered") {
		t.Errorf("debug line written at info level: %q", content)
	}
}

func TestInitRejectsUnknownSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "format", cfg: Config{Format: "xml"}},
		{name: "level", cfg: Config{Level: "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err == nil {
				t.Errorf("expected error for invalid %s", tt.name)
			}
		})
	}
}

func TestComponentWithoutInit(t *testing.T) {
	Logger = nil

	// Must not panic before Init
	Component("streak").Info("discarded")
	Debug("Test debug message")
	Warn("Test warning message")
}

func TestComponentPrefix(t *testing.T) {
	if err := Init(Config{ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if got := Component("xp").GetPrefix(); got != "daystreak/xp" {
		t.Errorf("Component prefix = %q, want %q", got, "daystreak/xp")
	}
}
