package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "redis",
			Addrs:  []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d: expected error", port)
		}
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}
}

func TestValidate_QdrantRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "qdrant"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for qdrant driver without url")
	}

	cfg.Database.URL = "localhost:6334"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MemoryNeedsNothing(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memory"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_EmbeddingRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing model")
	}

	cfg = validConfig()
	cfg.Embedding.Dimensions = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "redis" {
		t.Errorf("default driver = %q, want redis", cfg.Database.Driver)
	}
	if cfg.Ingest.Index != "askdex:questions:idx" {
		t.Errorf("default index = %q", cfg.Ingest.Index)
	}
	if cfg.Ingest.BatchSize != 100 {
		t.Errorf("default batch size = %d, want 100", cfg.Ingest.BatchSize)
	}
	if cfg.HTTP.ReadTimeoutSec <= 0 || cfg.HTTP.WriteTimeoutSec <= 0 || cfg.HTTP.ShutdownSec <= 0 {
		t.Errorf("http timeouts not defaulted: %+v", cfg.HTTP)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("default provider = %q", cfg.Embedding.Provider)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ASKDEX_TEST_VAL", "from-env")

	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"${ASKDEX_TEST_VAL}", "from-env"},
		{"${ASKDEX_TEST_UNSET}", ""},
		{"${ASKDEX_TEST_UNSET:-fallback}", "fallback"},
		{"${ASKDEX_TEST_VAL:-fallback}", "from-env"},
		{"prefix-${ASKDEX_TEST_VAL}-suffix", "prefix-from-env-suffix"},
	}

	for _, tt := range tests {
		got := string(expandEnvVars([]byte(tt.in)))
		if got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
