package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Whisper     WhisperConfig           `yaml:"whisper"`
	FFmpeg      FFmpegConfig            `yaml:"ffmpeg"`
	LLM         LLMConfig               `yaml:"llm"`
	Paths       PathsConfig             `yaml:"paths"`
	Logging     LoggingConfig           `yaml:"logging"`
	Performance PerformanceConfig       `yaml:"performance"`
	Pricing     map[string]PricingEntry `yaml:"pricing"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
	CleanAudio bool   `yaml:"clean_audio"`
}

type FFmpegConfig struct {
	Resolution   string `yaml:"resolution"`
	VideoBitrate string `yaml:"video_bitrate"`
	UseNVENC     bool   `yaml:"use_nvenc"`
	ConvertVideo bool   `yaml:"convert_video"`
}

type LLMConfig struct {
	Engine           string `yaml:"engine"`
	Model            string `yaml:"model"`
	MaxContextTokens int64  `yaml:"max_context_tokens"`
	ApplyFix         bool   `yaml:"apply_fix"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	GeminiAPIKey     string `yaml:"gemini_api_key"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Work   string `yaml:"work"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// PricingEntry overrides a model's USD price per one million tokens.
type PricingEntry struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Load reads the YAML config file, folds in environment secrets and applies
// defaults via Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills API keys from the environment when the YAML leaves them empty.
func (c *Config) applyEnv() {
	c.LLM.OpenAIAPIKey = envStr("OPENAI_API_KEY", c.LLM.OpenAIAPIKey)
	c.LLM.GeminiAPIKey = envStr("GEMINI_API_KEY", c.LLM.GeminiAPIKey)
}

func envStr(key, current string) string {
	if current != "" {
		return current
	}
	return os.Getenv(key)
}

func (c *Config) Validate() error {
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}
	if c.Whisper.Language == "" {
		return fmt.Errorf("whisper.language is required")
	}
	if c.Paths.Input == "" {
		return fmt.Errorf("paths.input is required")
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}

	if c.Paths.Work == "" {
		c.Paths.Work = "data/work"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.FFmpeg.Resolution == "" {
		c.FFmpeg.Resolution = "1280x720"
	}
	if c.FFmpeg.VideoBitrate == "" {
		c.FFmpeg.VideoBitrate = "2500k"
	}
	if c.LLM.Engine == "" {
		c.LLM.Engine = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4.1-mini"
	}
	if c.LLM.MaxContextTokens == 0 {
		c.LLM.MaxContextTokens = 100000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
