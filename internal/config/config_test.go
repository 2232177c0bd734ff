package config

import "testing"

func TestLoad_RequiresEncryptionKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when ENCRYPTION_KEY is unset")
	}
}

func TestLoad_RejectsWrongLengthEncryptionKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a non-32-byte ENCRYPTION_KEY")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "01234567890123456789012345678901")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Lifecycle.MinItemsCount != 100 {
		t.Errorf("expected default min_items_count 100, got %d", cfg.Lifecycle.MinItemsCount)
	}
	if !cfg.Matching.MatchActively {
		t.Error("expected match_actively to default to true")
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "01234567890123456789012345678901")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MATCH_EVERYTHING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected overridden port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Matching.MatchEverything {
		t.Error("expected match_everything=true from env")
	}
}
