package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MaxUploadBytes != 16*1024*1024 {
		t.Errorf("Expected 16MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("Expected JWT secret to fall back to session secret, got %q", cfg.JWTSecret)
	}
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "lots")
	if got := Load().MaxUploadBytes; got != 16*1024*1024 {
		t.Errorf("Expected fallback for invalid MAX_UPLOAD_MB, got %d", got)
	}
	t.Setenv("MAX_UPLOAD_MB", "2")
	if got := Load().MaxUploadBytes; got != 2*1024*1024 {
		t.Errorf("Expected 2MB, got %d", got)
	}
}

func TestSMTPComplete(t *testing.T) {
	c := SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p"}
	if c.Complete() {
		t.Error("Expected config without From to be incomplete")
	}
	c.From = "noreply@example.com"
	if !c.Complete() {
		t.Error("Expected full config to be complete")
	}
}

func TestLoadGinMode(t *testing.T) {
	t.Setenv("GIN_MODE", "")
	t.Setenv("LOG_LEVEL", "warn")
	if got := Load().GinMode; got != "release" {
		t.Errorf("Expected release mode for warn level, got %q", got)
	}
	t.Setenv("LOG_LEVEL", "debug")
	if got := Load().GinMode; got != "debug" {
		t.Errorf("Expected debug mode for debug level, got %q", got)
	}
	t.Setenv("GIN_MODE", "test")
	if got := Load().GinMode; got != "test" {
		t.Errorf("Expected explicit GIN_MODE to win, got %q", got)
	}
}
