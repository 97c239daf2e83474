package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/svdC1/mirumoji-open-api/internal/breakdown"
	"github.com/svdC1/mirumoji-open-api/internal/config"
	"github.com/svdC1/mirumoji-open-api/internal/corrector"
	"github.com/svdC1/mirumoji-open-api/internal/llm"
	"github.com/svdC1/mirumoji-open-api/internal/llm/gemini"
	"github.com/svdC1/mirumoji-open-api/internal/llm/openai"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
	"github.com/svdC1/mirumoji-open-api/internal/media"
	"github.com/svdC1/mirumoji-open-api/internal/pricing"
	"github.com/svdC1/mirumoji-open-api/internal/processor"
	"github.com/svdC1/mirumoji-open-api/internal/transcriber"
	"github.com/svdC1/mirumoji-open-api/internal/watcher"
	"github.com/svdC1/mirumoji-open-api/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	mediaPath := flag.String("media", "", "transcribe one file and print the SRT to stdout")
	sentence := flag.String("sentence", "", "run a sentence breakdown and print JSON")
	focus := flag.String("focus", "", "focus word for -sentence")
	applyFix := flag.Bool("fix", false, "apply the LLM correction pass in -media mode")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	exec := executor.New()
	tools, err := media.New(cfg, exec, log)
	if err != nil {
		log.Error(ctx, "Failed to initialize media tools: %v", err)
		os.Exit(1)
	}
	trans := transcriber.New(cfg, exec, log)

	table := pricing.Default().Merge(pricingOverrides(cfg))
	provider := buildProvider(ctx, cfg, log)

	corr := corrector.New(provider, cfg.LLM.Model, cfg.LLM.MaxContextTokens, table, log)
	bd, err := breakdown.New(provider, cfg.LLM.Model, cfg.LLM.MaxContextTokens, table, log)
	if err != nil {
		log.Error(ctx, "Failed to initialize breakdown service: %v", err)
		os.Exit(1)
	}

	proc := processor.New(cfg, tools, trans, corr, bd, log)

	switch {
	case *sentence != "":
		result, err := proc.Breakdown(ctx, *sentence, *focus)
		if err != nil {
			log.Error(ctx, "Breakdown failed: %v", err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Error(ctx, "Encode result: %v", err)
			os.Exit(1)
		}
		fmt.Println(string(out))

	case *mediaPath != "":
		srt, err := proc.TranscribeAndCorrect(ctx, *mediaPath, *applyFix)
		if err != nil {
			log.Error(ctx, "Transcription failed: %v", err)
			os.Exit(1)
		}
		fmt.Print(srt)

	default:
		runDaemon(ctx, cfg, proc, log)
	}
}

// runDaemon watches the input directory until SIGINT/SIGTERM.
func runDaemon(ctx context.Context, cfg *config.Config, proc processor.Processor, log logger.Logger) {
	log.Info(ctx, "========================================")
	log.Info(ctx, "Transcription Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s, CPU cores: %d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info(ctx, "Max concurrent processing: %d", cfg.Performance.MaxConcurrent)

	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	w, err := watcher.New(cfg.Paths.Input, proc.Process, log, cfg.Performance.MaxConcurrent)
	if err != nil {
		log.Error(ctx, "Failed to create watcher: %v", err)
		os.Exit(1)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
	log.Info(ctx, "Output: %s", cfg.Paths.Output)
	log.Info(ctx, "LLM correction: %v (%s/%s)", cfg.LLM.ApplyFix, cfg.LLM.Engine, cfg.LLM.Model)
	log.Info(ctx, "Press Ctrl+C to stop")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Watcher error: %v", err)
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()
	log.Info(ctx, "Pipeline stopped")
}

// buildProvider registers every backend that has credentials and routes to
// the configured engine. A nil provider is returned when no key is present;
// sessions then fail with a configuration error only when correction or
// breakdown is actually requested.
func buildProvider(ctx context.Context, cfg *config.Config, log logger.Logger) llm.Provider {
	backends := make(map[string]llm.Provider)

	if client, err := openai.New(cfg.LLM.OpenAIAPIKey); err == nil {
		backends["openai"] = client
	} else {
		log.Debug(ctx, "OpenAI backend unavailable: %v", err)
	}
	if client, err := gemini.New(ctx, cfg.LLM.GeminiAPIKey); err == nil {
		backends["gemini"] = client
	} else {
		log.Debug(ctx, "Gemini backend unavailable: %v", err)
	}

	router := llm.NewRouter(backends, cfg.LLM.Engine)
	provider, err := router.Route(cfg.LLM.Engine)
	if err != nil {
		log.Warn(ctx, "No LLM backend configured: %v", err)
		return nil
	}
	return provider
}

func pricingOverrides(cfg *config.Config) map[string]pricing.ModelPrice {
	overrides := make(map[string]pricing.ModelPrice, len(cfg.Pricing))
	for model, entry := range cfg.Pricing {
		overrides[model] = pricing.ModelPrice{Input: entry.Input, Output: entry.Output}
	}
	return overrides
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Output,
		cfg.Paths.Work,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
