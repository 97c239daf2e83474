package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/svdC1/mirumoji-open-api/internal/breakdown"
	"github.com/svdC1/mirumoji-open-api/internal/subtitle"
	"github.com/svdC1/mirumoji-open-api/internal/transcriber"
)

// Process runs the full pipeline for one watched media file: normalize,
// transcribe, optionally LLM-correct, write the SRT next to the output dir
// and re-encode video inputs for the clip player when configured.
func (p *implProcessor) Process(ctx context.Context, mediaPath string) error {
	startTime := time.Now()
	filename := filepath.Base(mediaPath)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing: %s", mediaPath)
	p.logger.Info(ctx, "========================================")

	srtText, err := p.TranscribeAndCorrect(ctx, mediaPath, p.cfg.LLM.ApplyFix)
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", filename, err)
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	srtPath := filepath.Join(p.cfg.Paths.Output, name+".srt")
	if err := os.WriteFile(srtPath, []byte(srtText), 0644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	p.logger.Info(ctx, "Subtitle written: %s", srtPath)

	if p.cfg.FFmpeg.ConvertVideo && isVideoFile(mediaPath) {
		videosDir := filepath.Join(p.cfg.Paths.Output, "videos")
		if err := os.MkdirAll(videosDir, 0755); err != nil {
			return fmt.Errorf("create videos dir: %w", err)
		}
		outputPath := filepath.Join(videosDir, name+".mp4")
		if _, err := p.media.ToMP4(ctx, mediaPath, outputPath,
			p.cfg.FFmpeg.Resolution, p.cfg.FFmpeg.VideoBitrate, p.cfg.FFmpeg.UseNVENC); err != nil {
			return fmt.Errorf("convert video: %w", err)
		}
		p.logger.Info(ctx, "Video converted: %s", outputPath)
	}

	p.logger.Info(ctx, "Completed %s in %s", filename, time.Since(startTime).Round(time.Second))
	return nil
}

// TranscribeAndCorrect converts the media file into SRT text. Silence yields
// the empty string, not a failure, and skips the correction request entirely.
func (p *implProcessor) TranscribeAndCorrect(ctx context.Context, mediaPath string, applyLLMFix bool) (string, error) {
	audioPath, err := p.prepareAudio(ctx, mediaPath)
	if err != nil {
		return "", err
	}
	if audioPath != mediaPath {
		defer p.cleanupTempFile(ctx, audioPath)
	}

	result, err := p.transcriber.Transcribe(ctx, audioPath, p.cfg.Whisper.Language, p.options())
	if err != nil {
		return "", err
	}

	doc := subtitle.FromSegments(result.Segments)
	if len(doc.Cues) == 0 {
		p.logger.Info(ctx, "No speech detected in %s", filepath.Base(mediaPath))
		return "", nil
	}

	doc, err = p.corrector.Correct(ctx, doc, applyLLMFix)
	if err != nil {
		return "", err
	}

	return doc.Compose(), nil
}

// TranscribeText returns the transcript as one punctuation-joined string.
func (p *implProcessor) TranscribeText(ctx context.Context, mediaPath string) (string, error) {
	audioPath, err := p.prepareAudio(ctx, mediaPath)
	if err != nil {
		return "", err
	}
	if audioPath != mediaPath {
		defer p.cleanupTempFile(ctx, audioPath)
	}

	return p.transcriber.TranscribeText(ctx, audioPath, p.cfg.Whisper.Language, p.options())
}

// Breakdown delegates to the sentence breakdown service.
func (p *implProcessor) Breakdown(ctx context.Context, sentence, focus string) (breakdown.Result, error) {
	return p.breakdown.Breakdown(ctx, sentence, focus)
}

// prepareAudio normalizes the input and optionally applies the band-pass
// clean-up pass for noisy sources. The filter output location is left to the
// media layer so the artifact lands in the temp dir even when the input was a
// passthrough file inside the watched directory.
func (p *implProcessor) prepareAudio(ctx context.Context, mediaPath string) (string, error) {
	audioPath, err := p.media.Normalize(ctx, mediaPath)
	if err != nil {
		return "", err
	}

	if !p.cfg.Whisper.CleanAudio {
		return audioPath, nil
	}

	cleanPath, err := p.media.Filter(ctx, audioPath, "", 0, 0)
	if err != nil {
		return "", err
	}
	if audioPath != mediaPath {
		p.cleanupTempFile(ctx, audioPath)
	}
	return cleanPath, nil
}

func (p *implProcessor) options() transcriber.Options {
	opts := transcriber.DefaultOptions()
	opts.Threads = p.cfg.Whisper.Threads
	opts.Prompt = p.cfg.Whisper.Prompt
	return opts
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
	".flv":  true,
}

func isVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}
