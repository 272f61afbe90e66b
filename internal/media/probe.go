package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/airwavetv/airwave/internal/logger"
)

// Default timeout for ffprobe execution
const defaultProbeTimeout = 30 * time.Second

// Common probe errors
var (
	ErrFFprobeNotFound = errors.New("ffprobe not found in PATH")
	ErrUnknownDuration = errors.New("file duration could not be determined")
	ErrProbeTimeout    = errors.New("ffprobe execution timed out")
)

// ProbeFunc measures a file's duration in seconds. It returns a
// non-negative duration or an error, never a sentinel value the catalog
// could mistake for a real zero-second measurement.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

// CheckFFprobeInstalled checks if ffprobe is available in PATH
func CheckFFprobeInstalled() error {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFFprobeNotFound
	}
	return nil
}

// NewFFprobe returns a ProbeFunc backed by the ffprobe binary. When
// useStreamDuration is set the first video stream's duration is read
// instead of the container duration.
func NewFFprobe(timeout time.Duration, useStreamDuration bool) ProbeFunc {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return func(ctx context.Context, path string) (float64, error) {
		return probeDuration(ctx, path, timeout, useStreamDuration)
	}
}

// probeDuration shells out to ffprobe for a single duration value:
//
//	ffprobe -v error -show_entries format=duration \
//	    -of default=noprint_wrappers=1:nokey=1 <file>
func probeDuration(ctx context.Context, path string, timeout time.Duration, useStreamDuration bool) (float64, error) {
	if err := CheckFFprobeInstalled(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"-v", "error"}
	if useStreamDuration {
		args = append(args, "-select_streams", "v:0", "-show_entries", "stream=duration")
	} else {
		args = append(args, "-show_entries", "format=duration")
	}
	args = append(args, "-of", "default=noprint_wrappers=1:nokey=1", path)

	cmd := exec.CommandContext(ctx, "ffprobe", args...)

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Log.Warn().
				Str("path", path).
				Dur("timeout", timeout).
				Msg("ffprobe execution timed out")
			return 0, ErrProbeTimeout
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			logger.Log.Warn().
				Str("path", path).
				Str("stderr", strings.TrimSpace(string(exitErr.Stderr))).
				Msg("ffprobe execution failed")
			return 0, fmt.Errorf("%w: %s", ErrUnknownDuration, strings.TrimSpace(string(exitErr.Stderr)))
		}

		logger.Log.Warn().
			Err(err).
			Str("path", path).
			Msg("ffprobe command failed")
		return 0, fmt.Errorf("%w: %v", ErrUnknownDuration, err)
	}

	text := strings.TrimSpace(string(output))
	if text == "" || text == "N/A" {
		return 0, ErrUnknownDuration
	}

	duration, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable ffprobe output %q", ErrUnknownDuration, text)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%w: negative duration %f", ErrUnknownDuration, duration)
	}

	logger.Log.Debug().
		Str("path", path).
		Float64("duration_seconds", duration).
		Msg("Probed file duration")

	return duration, nil
}
