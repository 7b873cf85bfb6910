package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Invocation defaults applied when the configuration leaves them blank.
const (
	// DefaultFormat prefers an mp4/m4a pair so the merged container stays mp4.
	DefaultFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	// DefaultOutputTemplate names downloads after title, source ID, and height.
	DefaultOutputTemplate = "%(title)s [%(id)s] [%(height)sp].%(ext)s"
	// DefaultSubtitleLangs selects the caption tracks saved next to the video.
	DefaultSubtitleLangs = "en"
)

// ProgressUpdate captures yt-dlp progress output.
type ProgressUpdate struct {
	Stage   string
	Percent float64
	Message string
}

// Metadata describes a probed source before any download happens.
type Metadata struct {
	ID              string
	Title           string
	Channel         string
	UploadDate      string
	DurationSeconds float64
	Width           int
	Height          int
	WebpageURL      string
}

// Result describes a finished download.
type Result struct {
	// MediaPath is the merged video file.
	MediaPath string
	// SubtitlePath is the source-language caption sidecar, empty when the
	// source offered none.
	SubtitlePath string
}

// Downloader defines the behaviour required by the fetch handler.
type Downloader interface {
	Probe(ctx context.Context, source string) (Metadata, error)
	Download(ctx context.Context, source, destDir string, progress func(ProgressUpdate)) (Result, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Config controls the yt-dlp invocation.
type Config struct {
	Format         string
	OutputTemplate string
	CookiesFile    string
	SubtitleLangs  string
	TimeoutSeconds int
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary  string
	cfg     Config
	timeout time.Duration
	exec    Executor
}

// New constructs a yt-dlp client.
func New(binary string, cfg Config, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:  binary,
		cfg:     cfg,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Probe inspects a source without downloading it.
func (c *Client) Probe(ctx context.Context, source string) (Metadata, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Metadata{}, errors.New("source required")
	}

	probeCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"--dump-single-json", "--skip-download", "--no-playlist", "--", source}

	var payload string
	var lastError string
	err := c.run(probeCtx, args, func(line string) {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "{"):
			payload = trimmed
		case strings.HasPrefix(trimmed, "ERROR:"):
			lastError = strings.TrimSpace(strings.TrimPrefix(trimmed, "ERROR:"))
		}
	})
	if err != nil {
		return Metadata{}, toolError("yt-dlp probe", err, lastError)
	}
	if payload == "" {
		return Metadata{}, errors.New("yt-dlp probe: no metadata returned")
	}

	var info struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		Channel    string  `json:"channel"`
		Uploader   string  `json:"uploader"`
		UploadDate string  `json:"upload_date"`
		Duration   float64 `json:"duration"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		WebpageURL string  `json:"webpage_url"`
	}
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return Metadata{}, fmt.Errorf("yt-dlp probe: parse metadata: %w", err)
	}

	meta := Metadata{
		ID:              info.ID,
		Title:           strings.TrimSpace(info.Title),
		Channel:         strings.TrimSpace(info.Channel),
		UploadDate:      info.UploadDate,
		DurationSeconds: info.Duration,
		Width:           info.Width,
		Height:          info.Height,
		WebpageURL:      info.WebpageURL,
	}
	if meta.Channel == "" {
		meta.Channel = strings.TrimSpace(info.Uploader)
	}
	return meta, nil
}

// Download fetches a source into destDir, returning the merged video file and
// any caption sidecar yt-dlp wrote next to it.
func (c *Client) Download(ctx context.Context, source, destDir string, progress func(ProgressUpdate)) (Result, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Result{}, errors.New("source required")
	}
	if destDir == "" {
		return Result{}, errors.New("destination directory required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create destination: %w", err)
	}

	format := strings.TrimSpace(c.cfg.Format)
	if format == "" {
		format = DefaultFormat
	}
	template := strings.TrimSpace(c.cfg.OutputTemplate)
	if template == "" {
		template = DefaultOutputTemplate
	}
	subLangs := strings.TrimSpace(c.cfg.SubtitleLangs)
	if subLangs == "" {
		subLangs = DefaultSubtitleLangs
	}

	args := []string{
		"--newline",
		"--no-playlist",
		"--format", format,
		"--merge-output-format", "mp4",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", subLangs,
		"--convert-subs", "srt",
		"--output", filepath.Join(destDir, template),
		"--", source,
	}

	dlCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastError string
	err := c.run(dlCtx, args, func(line string) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ERROR:") {
			lastError = strings.TrimSpace(strings.TrimPrefix(trimmed, "ERROR:"))
		}
		if progress == nil {
			return
		}
		if update, ok := parseProgress(trimmed); ok {
			progress(update)
		}
	})
	if err != nil {
		return Result{}, toolError("yt-dlp download", err, lastError)
	}

	media, err := newestMediaFile(destDir)
	if err != nil {
		return Result{}, fmt.Errorf("inspect download outputs: %w", err)
	}
	if media == "" {
		return Result{}, errors.New("yt-dlp produced no media file; check source availability")
	}
	return Result{
		MediaPath:    media,
		SubtitlePath: findSubtitleSidecar(destDir, media),
	}, nil
}

// run executes yt-dlp, retrying once without the cookies file when an
// authenticated attempt fails. Stale cookie jars are the common failure and
// public sources still download without them.
func (c *Client) run(ctx context.Context, args []string, onStdout func(string)) error {
	cookies := strings.TrimSpace(c.cfg.CookiesFile)
	if cookies == "" {
		return c.exec.Run(ctx, c.binary, args, onStdout)
	}
	withCookies := append([]string{"--cookies", cookies}, args...)
	err := c.exec.Run(ctx, c.binary, withCookies, onStdout)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if retryErr := c.exec.Run(ctx, c.binary, args, onStdout); retryErr != nil {
		return retryErr
	}
	return nil
}

func toolError(operation string, err error, detail string) error {
	if detail != "" {
		return fmt.Errorf("%s: %w: %s", operation, err, detail)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func parseProgress(line string) (ProgressUpdate, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "[download]"):
		rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))
		fields := strings.Fields(rest)
		if len(fields) == 0 || !strings.HasSuffix(fields[0], "%") {
			return ProgressUpdate{}, false
		}
		percent, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
		if err != nil {
			return ProgressUpdate{}, false
		}
		return ProgressUpdate{Stage: "Downloading", Percent: percent, Message: rest}, true
	case strings.HasPrefix(line, "[Merger]"):
		message := strings.TrimSpace(strings.TrimPrefix(line, "[Merger]"))
		return ProgressUpdate{Stage: "Merging", Percent: 100, Message: message}, true
	}
	return ProgressUpdate{}, false
}

var mediaExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".webm": {},
	".mov":  {},
	".avi":  {},
	".ts":   {},
}

// newestMediaFile scans destDir for the most recently written video file.
// yt-dlp names outputs from the template, so the path is not known up front.
func newestMediaFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := mediaExtensions[ext]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

// findSubtitleSidecar locates the caption file written for mediaPath,
// preferring sidecars that share the media file's base name.
func findSubtitleSidecar(dir, mediaPath string) string {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var fallback string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".srt") {
			continue
		}
		if strings.HasPrefix(entry.Name(), base) {
			return filepath.Join(dir, entry.Name())
		}
		if fallback == "" {
			fallback = filepath.Join(dir, entry.Name())
		}
	}
	return fallback
}
