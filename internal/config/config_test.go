package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 1000 {
		t.Fatalf("expected default chunk size 1000, got %d", cfg.ChunkSize)
	}
	if cfg.ExcerptChunks != 3 {
		t.Fatalf("expected default excerpt chunks 3, got %d", cfg.ExcerptChunks)
	}
	if cfg.WholeDocLimit != 2000 {
		t.Fatalf("expected default whole doc limit 2000, got %d", cfg.WholeDocLimit)
	}
	if cfg.NATSSubject != "attachments.uploaded" {
		t.Fatalf("unexpected default subject %q", cfg.NATSSubject)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api_port: \"9000\"\nchunk_size: 800\nopenrouter_model: test-model\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("OPENROUTER_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != "9000" {
		t.Fatalf("expected yaml api port 9000, got %q", cfg.APIPort)
	}
	if cfg.ChunkSize != 800 {
		t.Fatalf("expected yaml chunk size 800, got %d", cfg.ChunkSize)
	}
	if cfg.OpenRouterModel != "test-model" {
		t.Fatalf("expected yaml model, got %q", cfg.OpenRouterModel)
	}
	// Untouched fields keep their defaults.
	if cfg.ExcerptChunks != 3 {
		t.Fatalf("expected default excerpt chunks, got %d", cfg.ExcerptChunks)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: 800\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_SIZE", "1200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 1200 {
		t.Fatalf("expected env override 1200, got %d", cfg.ChunkSize)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMMaxTokens != 1024 {
		t.Fatalf("expected default max tokens, got %d", cfg.LLMMaxTokens)
	}
}
