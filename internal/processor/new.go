package processor

import (
	"github.com/svdC1/mirumoji-open-api/internal/breakdown"
	"github.com/svdC1/mirumoji-open-api/internal/config"
	"github.com/svdC1/mirumoji-open-api/internal/corrector"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
	"github.com/svdC1/mirumoji-open-api/internal/media"
	"github.com/svdC1/mirumoji-open-api/internal/transcriber"
)

type implProcessor struct {
	cfg         *config.Config
	media       media.Tools
	transcriber transcriber.Transcriber
	corrector   *corrector.Corrector
	breakdown   *breakdown.Service
	logger      logger.Logger
}

// New creates a new Processor instance
func New(
	cfg *config.Config,
	tools media.Tools,
	trans transcriber.Transcriber,
	corr *corrector.Corrector,
	bd *breakdown.Service,
	log logger.Logger,
) Processor {
	return &implProcessor{
		cfg:         cfg,
		media:       tools,
		transcriber: trans,
		corrector:   corr,
		breakdown:   bd,
		logger:      log,
	}
}
