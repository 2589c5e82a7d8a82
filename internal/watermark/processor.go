// Package watermark downloads a finished video and composites the Eros
// Universe logo into its top-right corner with ffmpeg.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrLogoMissing means the fixed logo asset is absent from local storage. It
// is checked before any download or ffmpeg work starts.
var ErrLogoMissing = errors.New("watermark: logo asset not found")

const (
	downloadTimeout = 2 * time.Minute
	encodeTimeout   = 5 * time.Minute
	stderrTailSize  = 8 << 10

	logoBoxWidth  = 160
	logoBoxHeight = 80
	logoOpacity   = "0.85"
	logoMargin    = 20
)

type Processor struct {
	logoPath   string
	workDir    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewProcessor(logoPath, workDir string, logger *slog.Logger) *Processor {
	return &Processor{
		logoPath:   logoPath,
		workDir:    workDir,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Apply downloads the result video and overlays the logo. It returns the path
// of the processed file and a cleanup func that removes both temp files; the
// caller must invoke cleanup once streaming ends, on every path. On error both
// files are already removed.
func (p *Processor) Apply(ctx context.Context, videoURL, taskID string) (string, func(), error) {
	if _, err := os.Stat(p.logoPath); err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrLogoMissing, p.logoPath)
	}

	srcPath := filepath.Join(p.workDir, fmt.Sprintf("wm-src-%s.mp4", uuid.New()))
	outPath := filepath.Join(p.workDir, fmt.Sprintf("wm-out-%s.mp4", uuid.New()))
	cleanup := func() {
		for _, path := range []string{srcPath, outPath} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("failed to remove temp file", "path", path, "error", err)
			}
		}
	}

	if err := p.download(ctx, videoURL, srcPath); err != nil {
		cleanup()
		return "", nil, err
	}

	p.logger.Info("watermarking video", "task_id", taskID, "src", srcPath)
	if err := p.overlay(ctx, srcPath, outPath); err != nil {
		cleanup()
		return "", nil, err
	}

	return outPath, cleanup, nil
}

func (p *Processor) download(ctx context.Context, videoURL, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fmt.Errorf("invalid result url: %w", err)
	}
	// The result host is trusted as delivered by the API; log it so odd
	// origins are at least visible.
	p.logger.Info("downloading result video", "host", req.URL.Host)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download video: status %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write video body: %w", err)
	}
	return f.Close()
}

// overlay scales the logo into a 160x80 box (aspect preserved, lanczos),
// drops it to 85% opacity, and composites it 20px from the top-right corner.
// Video is re-encoded, audio copied unchanged, and the container optimized
// for progressive playback.
func (p *Processor) overlay(ctx context.Context, srcPath, outPath string) error {
	video := ffmpeg.Input(srcPath)
	logo := ffmpeg.Input(p.logoPath).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease:flags=lanczos", logoBoxWidth, logoBoxHeight)}).
		Filter("format", ffmpeg.Args{"rgba"}).
		Filter("colorchannelmixer", ffmpeg.Args{"aa=" + logoOpacity})
	marked := ffmpeg.Filter([]*ffmpeg.Stream{video, logo}, "overlay",
		ffmpeg.Args{fmt.Sprintf("main_w-overlay_w-%d:%d", logoMargin, logoMargin)})

	compiled := ffmpeg.Output([]*ffmpeg.Stream{marked, video.Audio()}, outPath, ffmpeg.KwArgs{
		"c:v":      "libx264",
		"c:a":      "copy",
		"movflags": "+faststart",
	}).OverWriteOutput().Compile()

	ctx, cancel := context.WithTimeout(ctx, encodeTimeout)
	defer cancel()

	stderr := &tailBuffer{limit: stderrTailSize}
	cmd := exec.CommandContext(ctx, compiled.Args[0], compiled.Args[1:]...)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("ffmpeg timed out after %s", encodeTimeout)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}
	return nil
}

// tailBuffer keeps the last limit bytes written; ffmpeg's stderr is unbounded
// on long encodes.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
