package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	langpkg "subweave/internal/language"
)

// Whisper CLI constants.
const (
	DefaultModel = "large-v3"
	OutputFormat = "srt"
	CPUDevice    = "cpu"
	CUDADevice   = "cuda"
)

// Config captures runtime settings for Whisper invocations.
type Config struct {
	// Model is the Whisper model to load (e.g. "large-v3").
	Model string
	// Language pins the source language; empty lets Whisper auto-detect.
	Language string
	// CUDAEnabled selects the cuda device instead of cpu.
	CUDAEnabled bool
	// TimeoutSeconds bounds a single transcription run.
	TimeoutSeconds int
}

// Transcriber defines the behaviour required by the transcription handler.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath, outputDir string) (string, error)
}

// Service wraps Whisper CLI interactions.
type Service struct {
	binary        string
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a Whisper service with the given configuration.
func NewService(binary string, cfg Config) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "whisper"
	}
	return &Service{binary: binary, cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Transcribe runs Whisper against mediaPath and returns the SRT written to
// outputDir.
func (s *Service) Transcribe(ctx context.Context, mediaPath, outputDir string) (string, error) {
	mediaPath = strings.TrimSpace(mediaPath)
	if mediaPath == "" {
		return "", errors.New("transcribe: media path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(mediaPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	runCtx := ctx
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	if err := s.run(runCtx, s.binary, s.buildArgs(mediaPath, outputDir)...); err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	srtPath := DerivedSRTPath(mediaPath, outputDir)
	if _, err := os.Stat(srtPath); err != nil {
		return "", fmt.Errorf("whisper produced no transcript at %s: %w", srtPath, err)
	}
	return srtPath, nil
}

// DerivedSRTPath returns where Whisper writes the SRT for mediaPath.
func DerivedSRTPath(mediaPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	return filepath.Join(outputDir, base+".srt")
}

// buildArgs constructs the Whisper CLI arguments.
func (s *Service) buildArgs(mediaPath, outputDir string) []string {
	model := s.cfg.Model
	if model == "" {
		model = DefaultModel
	}
	args := []string{
		mediaPath,
		"--model", model,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
	}
	if lang := langpkg.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		// FP16 inference is GPU-only; pin FP32 to silence the CPU fallback warning.
		args = append(args, "--device", CPUDevice, "--fp16", "False")
	}
	return args
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
