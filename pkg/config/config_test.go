package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"DEEPSEEK_API_KEY": "sk-test-key",
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setEnv(t, baseEnv())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ChunkSize != 512 || cfg.ChunkOverlap != 50 {
		t.Errorf("ChunkSize/Overlap = %d/%d, want 512/50", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
	if cfg.RelevanceThreshold != 0.3 {
		t.Errorf("RelevanceThreshold = %v, want 0.3", cfg.RelevanceThreshold)
	}
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	os.Unsetenv("DEEPSEEK_API_KEY")

	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail without DEEPSEEK_API_KEY")
	}
}

func TestLoad_InvalidIntegerFails(t *testing.T) {
	env := baseEnv()
	env["TOP_K"] = "not-a-number"
	setEnv(t, env)

	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail on a non-integer TOP_K")
	}
}

func TestLoad_ChunkOverlapMustBeSmallerThanChunkSize(t *testing.T) {
	env := baseEnv()
	env["CHUNK_SIZE"] = "100"
	env["CHUNK_OVERLAP"] = "100"
	setEnv(t, env)

	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to reject CHUNK_OVERLAP >= CHUNK_SIZE")
	}
}

func TestOpenAPIKey_ReturnsPlaintext(t *testing.T) {
	setEnv(t, baseEnv())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var got string
	err = cfg.OpenAPIKey(func(key string) error {
		got = key
		return nil
	})
	if err != nil {
		t.Fatalf("OpenAPIKey() error = %v", err)
	}
	if got != "sk-test-key" {
		t.Errorf("OpenAPIKey() = %q, want sk-test-key", got)
	}
}

func TestLoad_AllowedOriginsParsedAsCSV(t *testing.T) {
	env := baseEnv()
	env["ALLOWED_ORIGINS"] = "https://a.example.com, https://b.example.com"
	setEnv(t, env)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
}
