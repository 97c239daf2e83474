package media

import "context"

// Tools defines the interface for ffmpeg-backed media normalization
type Tools interface {
	Normalize(ctx context.Context, inputPath string) (string, error)
	Filter(ctx context.Context, inputPath, outputPath string, highpassHz, lowpassHz int) (string, error)
	ToMP4(ctx context.Context, inputPath, outputPath, resolution, bitrate string, useNVENC bool) (string, error)
}
