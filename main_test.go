package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadEnvFile tests that dotenv values are loaded without overriding the environment.
func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "TRELLO_BOARD_ID=from-file\nTRELLO_API_KEY=file-key\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	t.Setenv("TRELLO_API_KEY", "already-set")
	t.Setenv("TRELLO_BOARD_ID", "")
	os.Unsetenv("TRELLO_BOARD_ID")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := os.Getenv("TRELLO_BOARD_ID"); got != "from-file" {
		t.Errorf("Expected TRELLO_BOARD_ID from file, got %q", got)
	}
	if got := os.Getenv("TRELLO_API_KEY"); got != "already-set" {
		t.Errorf("Expected existing TRELLO_API_KEY to win, got %q", got)
	}
}

// TestLoadEnvFileMissing tests that a missing dotenv file is not an error.
func TestLoadEnvFileMissing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Expected missing file to be ignored, got: %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Errorf("Expected empty path to be ignored, got: %v", err)
	}
}

// TestRootCommandFlags tests the flags exposed by the CLI.
func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()

	for name, def := range map[string]string{
		"config":    "",
		"env-file":  ".env",
		"transport": "",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("Expected flag --%s", name)
			continue
		}
		if flag.DefValue != def {
			t.Errorf("Flag --%s: expected default %q, got %q", name, def, flag.DefValue)
		}
	}

	if cmd.Version != serverVersion {
		t.Errorf("Expected version %s, got %s", serverVersion, cmd.Version)
	}
}

// TestRunRejectsInvalidConfiguration tests that startup fails before any transport starts.
func TestRunRejectsInvalidConfiguration(t *testing.T) {
	noEnv := filepath.Join(t.TempDir(), "absent.env")

	err := run(context.Background(), &options{
		configPath: filepath.Join(t.TempDir(), "absent.yaml"),
		envFile:    noEnv,
	})
	if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
		t.Errorf("Expected missing config error, got %v", err)
	}

	t.Setenv("MCP_TRANSPORT", "")
	err = run(context.Background(), &options{envFile: noEnv, transport: "carrier-pigeon"})
	if err == nil || !strings.Contains(err.Error(), "invalid transport type 'carrier-pigeon'") {
		t.Errorf("Expected transport validation error, got %v", err)
	}
}
