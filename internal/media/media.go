package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/pkg/executor"
)

// audioExts are containers passed through Normalize unchanged to avoid a
// lossy re-encode.
var audioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".aac":  true,
}

// Normalize converts any container into 16-bit PCM, mono, 16 kHz. Inputs
// already in an allowed audio extension are returned unchanged.
func (t *implTools) Normalize(ctx context.Context, inputPath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(inputPath))
	if audioExts[ext] {
		t.logger.Debug(ctx, "Input is audio (%s), no extraction needed", ext)
		return inputPath, nil
	}

	t.logger.Info(ctx, "Extracting audio from container: %s", inputPath)

	name := strings.TrimSuffix(filepath.Base(inputPath), ext)
	outputPath := filepath.Join(t.tempDir, name+".wav")

	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	}

	if _, err := t.executor.Execute(ctx, t.ffmpeg, args...); err != nil {
		t.logToolError(ctx, err)
		return "", errs.Wrap(errs.ErrToolExecution, "extract audio from %s", filepath.Base(inputPath))
	}

	t.logger.Debug(ctx, "Audio saved at %s", outputPath)
	return outputPath, nil
}

// Filter applies a band-pass plus loudness normalization for noisy sources.
// Output is always mono 16 kHz regardless of input. An empty outputPath
// places the result in the temp dir, never next to the input, so filtering a
// file inside the watched directory cannot feed an artifact back to the
// watcher.
func (t *implTools) Filter(ctx context.Context, inputPath, outputPath string, highpassHz, lowpassHz int) (string, error) {
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		name := strings.TrimSuffix(filepath.Base(inputPath), ext)
		outputPath = filepath.Join(t.tempDir, name+"_clean.wav")
	}
	if highpassHz <= 0 {
		highpassHz = 300
	}
	if lowpassHz <= 0 {
		lowpassHz = 3400
	}

	t.logger.Info(ctx, "Filtering audio %s (band-pass %d-%d Hz)", inputPath, highpassHz, lowpassHz)

	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-af", fmt.Sprintf("highpass=f=%d, lowpass=f=%d, loudnorm", highpassHz, lowpassHz),
		"-ac", "1",
		"-ar", "16000",
		outputPath,
	}

	if _, err := t.executor.Execute(ctx, t.ffmpeg, args...); err != nil {
		t.logToolError(ctx, err)
		return "", errs.Wrap(errs.ErrToolExecution, "filter audio %s", filepath.Base(inputPath))
	}

	return outputPath, nil
}

// ToMP4 re-encodes a video to browser-safe H.264+AAC MP4: scale to fit the
// target canvas, letterbox pad, faststart. With useNVENC the hardware
// encoder is tried first and libx264 is the deterministic fallback on a
// non-zero exit.
func (t *implTools) ToMP4(ctx context.Context, inputPath, outputPath, resolution, bitrate string, useNVENC bool) (string, error) {
	width, height, err := parseResolution(resolution)
	if err != nil {
		return "", err
	}
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + ".mp4"
	}

	vf := fmt.Sprintf(
		"scale=w=%d:h=%d:force_original_aspect_ratio=decrease,pad=w=%d:h=%d:x=(ow-iw)/2:y=(oh-ih)/2:color=black",
		width, height, width, height,
	)

	softwareArgs := []string{
		"-c:v", "libx264",
		"-profile:v", "high",
		"-b:v", bitrate,
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
	}
	encoderArgs := softwareArgs
	if useNVENC {
		encoderArgs = []string{
			"-c:v", "h264_nvenc",
			"-preset", "p6",
			"-rc:v", "vbr",
			"-b:v", bitrate,
			"-pix_fmt", "yuv420p",
		}
	}

	t.logger.Info(ctx, "Converting %s to MP4 (%s, nvenc=%v)", filepath.Base(inputPath), resolution, useNVENC)

	_, err = t.executor.Execute(ctx, t.ffmpeg, t.mp4Args(inputPath, outputPath, vf, encoderArgs)...)
	if err != nil && useNVENC {
		t.logger.Warn(ctx, "Hardware encoder failed, falling back to libx264")
		_, err = t.executor.Execute(ctx, t.ffmpeg, t.mp4Args(inputPath, outputPath, vf, softwareArgs)...)
	}
	if err != nil {
		t.logToolError(ctx, err)
		return "", errs.Wrap(errs.ErrToolExecution, "convert %s to mp4", filepath.Base(inputPath))
	}

	t.logger.Info(ctx, "Converted %s -> %s", filepath.Base(inputPath), filepath.Base(outputPath))
	return outputPath, nil
}

func (t *implTools) mp4Args(inputPath, outputPath, vf string, encoderArgs []string) []string {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", vf,
	}
	args = append(args, encoderArgs...)
	args = append(args,
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

func parseResolution(resolution string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(resolution), "x", 2)
	if len(parts) != 2 {
		return 0, 0, errs.Wrap(errs.ErrConfiguration, "resolution must be WxH, got %q", resolution)
	}
	width, werr := strconv.Atoi(parts[0])
	height, herr := strconv.Atoi(parts[1])
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return 0, 0, errs.Wrap(errs.ErrConfiguration, "resolution must be WxH, got %q", resolution)
	}
	return width, height, nil
}

// logToolError appends captured subprocess stderr to the error log in the
// working directory. Callers only ever see the sanitized sentinel error.
func (t *implTools) logToolError(ctx context.Context, err error) {
	var exitErr *executor.ExitError
	if !errors.As(err, &exitErr) || exitErr.Stderr == "" {
		return
	}

	timestamp := time.Now().Format("[2006-01-02 15:04:05]")
	entry := fmt.Sprintf("%s ffmpeg error:\n%s\n\n", timestamp, exitErr.Stderr)

	logPath := filepath.Join(t.workDir, "error_log.txt")
	f, openErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if openErr != nil {
		t.logger.Warn(ctx, "Failed to open error log: %v", openErr)
		return
	}
	defer f.Close()

	if _, writeErr := f.WriteString(entry); writeErr != nil {
		t.logger.Warn(ctx, "Failed to write error log: %v", writeErr)
	}
}
