package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		Whisper: WhisperConfig{
			ModelPath:  "models/test.bin",
			BinaryPath: "./whisper",
			Language:   "ja",
		},
		Paths: PathsConfig{
			Input:  "data/input",
			Output: "data/output",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing model path", func(c *Config) { c.Whisper.ModelPath = "" }, true},
		{"missing binary path", func(c *Config) { c.Whisper.BinaryPath = "" }, true},
		{"missing language", func(c *Config) { c.Whisper.Language = "" }, true},
		{"missing input path", func(c *Config) { c.Paths.Input = "" }, true},
		{"missing output path", func(c *Config) { c.Paths.Output = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Performance.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.Performance.MaxConcurrent)
	}
	if cfg.Whisper.Threads != 8 {
		t.Errorf("Threads = %d, want 8", cfg.Whisper.Threads)
	}
	if cfg.LLM.Engine != "openai" {
		t.Errorf("LLM.Engine = %q, want %q", cfg.LLM.Engine, "openai")
	}
	if cfg.LLM.Model != "gpt-4.1-mini" {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, "gpt-4.1-mini")
	}
	if cfg.LLM.MaxContextTokens != 100000 {
		t.Errorf("LLM.MaxContextTokens = %d, want 100000", cfg.LLM.MaxContextTokens)
	}
	if cfg.FFmpeg.Resolution != "1280x720" {
		t.Errorf("FFmpeg.Resolution = %q, want %q", cfg.FFmpeg.Resolution, "1280x720")
	}
}

func TestLoad(t *testing.T) {
	yaml := `
whisper:
  model_path: models/ggml-large-v3.bin
  binary_path: ./whisper-cli
  language: ja
paths:
  input: data/input
  output: data/output
llm:
  engine: openai
  model: gpt-4.1
  apply_fix: true
pricing:
  my-model:
    input: 1.5
    output: 3.0
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Model != "gpt-4.1" {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, "gpt-4.1")
	}
	if !cfg.LLM.ApplyFix {
		t.Error("LLM.ApplyFix = false, want true")
	}
	entry, ok := cfg.Pricing["my-model"]
	if !ok {
		t.Fatal("pricing override not loaded")
	}
	if entry.Input != 1.5 || entry.Output != 3.0 {
		t.Errorf("pricing override = %+v, want {1.5 3}", entry)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := validConfig()
	cfg.applyEnv()
	if cfg.LLM.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q, want env value", cfg.LLM.OpenAIAPIKey)
	}

	// YAML value wins over the environment.
	cfg = validConfig()
	cfg.LLM.OpenAIAPIKey = "sk-yaml"
	cfg.applyEnv()
	if cfg.LLM.OpenAIAPIKey != "sk-yaml" {
		t.Errorf("OpenAIAPIKey = %q, want yaml value", cfg.LLM.OpenAIAPIKey)
	}
}
