package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Mode != "polly" {
		t.Fatalf("expected default mode polly, got %q", cfg.TTS.Mode)
	}
	if cfg.TTS.MaxChunkLen != 2900 {
		t.Fatalf("expected default max chunk length 2900, got %d", cfg.TTS.MaxChunkLen)
	}
	if cfg.TTS.SampleRate != 16000 {
		t.Fatalf("expected default sample rate 16000, got %d", cfg.TTS.SampleRate)
	}
	if cfg.TTS.DefaultVoice != "Joanna" {
		t.Fatalf("expected default voice Joanna, got %q", cfg.TTS.DefaultVoice)
	}
}

func TestLoadFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "orate.yaml")
	content := `
service_name: speech-test
http:
  port: 9000
tts:
  mode: mock
  max_chunk_len: 500
request_log:
  retention_mode: ephemeral
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "speech-test" || cfg.HTTP.Port != 9000 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.TTS.Mode != "mock" || cfg.TTS.MaxChunkLen != 500 {
		t.Fatalf("tts section not applied: %+v", cfg.TTS)
	}
	if cfg.RequestLog.RetentionMode != "ephemeral" {
		t.Fatalf("request log section not applied: %+v", cfg.RequestLog)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ORATE_TTS_MODE", "exec")
	t.Setenv("ORATE_TTS_COMMAND", "piper --output-raw")
	t.Setenv("ORATE_TTS_REGION", "eu-west-1")
	t.Setenv("ORATE_TTS_MAX_CHUNK_LEN", "1000")
	t.Setenv("ORATE_TRANSLATE_API_KEY", "secret")
	t.Setenv("ORATE_BUS_ENABLED", "true")
	t.Setenv("ORATE_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("ORATE_BUS_EMBEDDED", "false")
	t.Setenv("ORATE_REQUEST_LOG_PATH", "./tmp.db")
	t.Setenv("ORATE_REQUEST_LOG_RETENTION_DAYS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Mode != "exec" || cfg.TTS.Command != "piper --output-raw" {
		t.Fatalf("expected exec mode override, got %+v", cfg.TTS)
	}
	if cfg.TTS.Region != "eu-west-1" || cfg.TTS.MaxChunkLen != 1000 {
		t.Fatalf("tts overrides not applied: %+v", cfg.TTS)
	}
	if cfg.Translate.APIKey != "secret" {
		t.Fatalf("expected api key override")
	}
	if !cfg.Bus.Enabled || cfg.Bus.Embedded {
		t.Fatalf("bus overrides not applied: %+v", cfg.Bus)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.RequestLog.Path != "./tmp.db" || cfg.RequestLog.RetentionDays != 7 {
		t.Fatalf("request log overrides not applied: %+v", cfg.RequestLog)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.TTS.Mode = "espeak" }},
		{"exec without command", func(c *Config) { c.TTS.Mode = "exec"; c.TTS.Command = "" }},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }},
		{"bad chunk len", func(c *Config) { c.TTS.MaxChunkLen = 0 }},
		{"bad retention", func(c *Config) { c.RequestLog.RetentionMode = "forever" }},
		{"bus without servers", func(c *Config) { c.Bus.Enabled = true; c.Bus.Embedded = false; c.Bus.Servers = nil }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
