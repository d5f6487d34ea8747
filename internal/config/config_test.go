// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8082"

database:
  path: "./test.db"

upstream:
  llm_url: "http://llm.internal/v1/complete"
  retriever_url: "http://retriever.internal/v1/search"
  connect_timeout: "1s"
  llm_read_timeout: "10s"
  retriever_read_timeout: "4s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify server config
	if cfg.Server.HTTPAddr != "0.0.0.0:8082" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8082")
	}

	// Verify database config
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}

	// Verify upstream config with duration parsing
	if cfg.Upstream.LLMURL != "http://llm.internal/v1/complete" {
		t.Errorf("Upstream.LLMURL = %q, want %q", cfg.Upstream.LLMURL, "http://llm.internal/v1/complete")
	}
	if cfg.Upstream.RetrieverURL != "http://retriever.internal/v1/search" {
		t.Errorf("Upstream.RetrieverURL = %q, want %q", cfg.Upstream.RetrieverURL, "http://retriever.internal/v1/search")
	}
	if cfg.Upstream.ConnectTimeout != 1*time.Second {
		t.Errorf("Upstream.ConnectTimeout = %v, want %v", cfg.Upstream.ConnectTimeout, 1*time.Second)
	}
	if cfg.Upstream.LLMReadTimeout != 10*time.Second {
		t.Errorf("Upstream.LLMReadTimeout = %v, want %v", cfg.Upstream.LLMReadTimeout, 10*time.Second)
	}
	if cfg.Upstream.RetrieverReadTimeout != 4*time.Second {
		t.Errorf("Upstream.RetrieverReadTimeout = %v, want %v", cfg.Upstream.RetrieverReadTimeout, 4*time.Second)
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_DefaultTimeouts(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8082"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("Upstream.ConnectTimeout = %v, want %v", cfg.Upstream.ConnectTimeout, DefaultConnectTimeout)
	}
	if cfg.Upstream.LLMReadTimeout != DefaultLLMReadTimeout {
		t.Errorf("Upstream.LLMReadTimeout = %v, want %v", cfg.Upstream.LLMReadTimeout, DefaultLLMReadTimeout)
	}
	if cfg.Upstream.RetrieverReadTimeout != DefaultRetrieverReadTimeout {
		t.Errorf("Upstream.RetrieverReadTimeout = %v, want %v", cfg.Upstream.RetrieverReadTimeout, DefaultRetrieverReadTimeout)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/data/from-env.db")
	t.Setenv("TEST_LLM_URL", "http://env-llm/v1/complete")

	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8082"
database:
  path: "${TEST_DB_PATH}"
upstream:
  llm_url: "${TEST_LLM_URL}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/data/from-env.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/data/from-env.db")
	}
	if cfg.Upstream.LLMURL != "http://env-llm/v1/complete" {
		t.Errorf("Upstream.LLMURL = %q, want %q", cfg.Upstream.LLMURL, "http://env-llm/v1/complete")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	// Ensure the env var is NOT set
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8082"
database:
  path: "./test.db"
upstream:
  llm_url: "${UNSET_VAR_FOR_TEST}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Unset env vars should expand to empty string
	if cfg.Upstream.LLMURL != "" {
		t.Errorf("Upstream.LLMURL = %q, want empty string for unset env var", cfg.Upstream.LLMURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr "missing colon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8082"
database:
  path: "./test.db"
upstream:
  connect_timeout: "invalid-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing http_addr",
			configContent: `
server:
  http_addr: ""
database:
  path: "./test.db"
`,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "missing database path",
			configContent: `
server:
  http_addr: "localhost:8082"
database:
  path: ""
`,
			wantErrSubstr: "database.path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.configContent)

			_, err := Load(configPath)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}

			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
