package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Burn defaults applied when the configuration leaves them blank.
const (
	DefaultVideoCodec = "libx264"
	DefaultCRF        = 18
	DefaultPreset     = "medium"
)

// ProgressUpdate captures ffmpeg encode progress.
type ProgressUpdate struct {
	Stage   string
	Percent float64
	Message string
}

// Burner defines the behaviour required by the rendering handler.
type Burner interface {
	Burn(ctx context.Context, mediaPath, subtitlePath, outputPath string, durationSeconds float64, progress func(ProgressUpdate)) error
}

// Config controls the burn invocation.
type Config struct {
	VideoCodec     string
	CRF            int
	Preset         string
	TimeoutSeconds int
}

// CLI wraps the ffmpeg and ffprobe command-line tools.
type CLI struct {
	ffmpeg  string
	ffprobe string
	cfg     Config
}

// NewCLI constructs a client. Blank binaries fall back to PATH lookups.
func NewCLI(ffmpegBinary, ffprobeBinary string, cfg Config) *CLI {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &CLI{ffmpeg: ffmpegBinary, ffprobe: ffprobeBinary, cfg: cfg}
}

// Burn re-encodes mediaPath with subtitlePath rendered into the video stream,
// writing outputPath. durationSeconds drives percent reporting; pass 0 when
// unknown and only stage messages are emitted.
func (c *CLI) Burn(ctx context.Context, mediaPath, subtitlePath, outputPath string, durationSeconds float64, progress func(ProgressUpdate)) error {
	if strings.TrimSpace(mediaPath) == "" {
		return errors.New("media path required")
	}
	if strings.TrimSpace(subtitlePath) == "" {
		return errors.New("subtitle path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	// A half-written file from an interrupted run would make ffmpeg prompt or
	// fail on some platforms that hold the handle open.
	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale output: %w", err)
	}

	codec := strings.TrimSpace(c.cfg.VideoCodec)
	if codec == "" {
		codec = DefaultVideoCodec
	}
	crf := c.cfg.CRF
	if crf <= 0 {
		crf = DefaultCRF
	}
	preset := strings.TrimSpace(c.cfg.Preset)
	if preset == "" {
		preset = DefaultPreset
	}

	burnCtx := ctx
	if c.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		burnCtx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-i", mediaPath,
		"-vf", "ass=" + escapeFilterPath(subtitlePath),
		"-c:v", codec,
		"-crf", strconv.Itoa(crf),
		"-preset", preset,
		"-c:a", "copy",
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	}

	cmd := commandContext(burnCtx, c.ffmpeg, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	var lastDiagnostic string
	var speed string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			lastDiagnostic = line
			continue
		}
		switch key {
		case "speed":
			speed = strings.TrimSpace(value)
		case "out_time_us", "out_time_ms":
			// out_time_ms is microseconds despite the name.
			if progress == nil || durationSeconds <= 0 {
				continue
			}
			micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || micros < 0 {
				continue
			}
			elapsed := float64(micros) / 1e6
			percent := elapsed / durationSeconds * 100
			if percent > 100 {
				percent = 100
			}
			progress(ProgressUpdate{
				Stage:   "Rendering",
				Percent: percent,
				Message: burnMessage(elapsed, durationSeconds, speed),
			})
		case "progress":
			if progress != nil && strings.TrimSpace(value) == "end" {
				progress(ProgressUpdate{Stage: "Rendering", Percent: 100, Message: "finalizing"})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("read ffmpeg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if lastDiagnostic != "" {
			return fmt.Errorf("ffmpeg burn failed: %w: %s", err, lastDiagnostic)
		}
		return fmt.Errorf("ffmpeg burn failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	return nil
}

func burnMessage(elapsed, total float64, speed string) string {
	msg := fmt.Sprintf("%s of %s", hhmmss(elapsed), hhmmss(total))
	if speed != "" {
		msg += " at " + speed
	}
	return msg
}

func hhmmss(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// escapeFilterPath escapes characters the ffmpeg filter parser treats as
// syntax inside the ass= argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		":", `\:`,
		"'", `\'`,
		"[", `\[`,
		"]", `\]`,
		",", `\,`,
		";", `\;`,
	)
	return replacer.Replace(path)
}

var (
	_ Prober = (*CLI)(nil)
	_ Burner = (*CLI)(nil)
)
