package media

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/svdC1/mirumoji-open-api/internal/config"
	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
	"github.com/svdC1/mirumoji-open-api/pkg/executor"
)

type implTools struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
	ffmpeg   string
	workDir  string
	tempDir  string
}

// New creates a Tools instance. The ffmpeg binary must be on PATH and the
// working directory is created if missing.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) (Tools, error) {
	ffmpeg, err := lookPath("ffmpeg")
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "ffmpeg not found: %v", err)
	}

	workDir := cfg.Paths.Work
	tempDir := filepath.Join(workDir, "temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "create work dir: %v", err)
	}

	return &implTools{
		cfg:      cfg,
		executor: exec,
		logger:   log,
		ffmpeg:   ffmpeg,
		workDir:  workDir,
		tempDir:  tempDir,
	}, nil
}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath
