package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"subweave/internal/subtitles"
)

//go:embed sample_config.toml
var sampleConfig string

// LogFileName is the daemon log file created under paths.log_dir.
const LogFileName = "subweave.log"

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	ReviewDir  string `toml:"review_dir"`
}

// Translation configures the chunking, pacing, and retry behaviour of the
// translation engine.
type Translation struct {
	SourceLanguage               string `toml:"source_language"`
	TargetLanguage               string `toml:"target_language"`
	Tone                         string `toml:"tone"`
	WindowSize                   int    `toml:"window_size"`
	ContextOverlap               int    `toml:"context_overlap"`
	Workers                      int    `toml:"workers"`
	RequestsPerMinute            int    `toml:"requests_per_minute"`
	MaxRetries                   int    `toml:"max_retries"`
	RepairPasses                 int    `toml:"repair_passes"`
	ForbidParentheticalOriginals bool   `toml:"forbid_parenthetical_originals"`
	PersonaFile                  string `toml:"persona_file"`
}

// LLM contains connection settings for the hosted translation backend.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Style configures subtitle presentation: layout, box, fonts, and geometry.
type Style struct {
	Layout            string `toml:"layout"`
	BoxStyle          string `toml:"box_style"`
	MaxLineWidth      int    `toml:"max_line_width"`
	PrimaryFont       string `toml:"primary_font"`
	PrimaryFontSize   int    `toml:"primary_font_size"`
	PrimaryColour     string `toml:"primary_colour"`
	SecondaryFont     string `toml:"secondary_font"`
	SecondaryFontSize int    `toml:"secondary_font_size"`
	SecondaryColour   string `toml:"secondary_colour"`
	MarginVertical    int    `toml:"margin_vertical"`
	PlayResX          int    `toml:"play_res_x"`
	PlayResY          int    `toml:"play_res_y"`
}

// Downloader configures video acquisition via yt-dlp.
type Downloader struct {
	Format         string `toml:"format"`
	OutputTemplate string `toml:"output_template"`
	CookiesFile    string `toml:"cookies_file"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcriber configures speech-to-text via the whisper CLI.
type Transcriber struct {
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Render configures the subtitle burn encode.
type Render struct {
	VideoCodec     string `toml:"video_codec"`
	CRF            int    `toml:"crf"`
	Preset         string `toml:"preset"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Library configures final placement of finished items.
type Library struct {
	OverwriteExisting bool `toml:"overwrite_existing"`
	CopySubtitles     bool `toml:"copy_subtitles"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Queue          bool   `toml:"queue"`
	Stages         bool   `toml:"stages"`
	Errors         bool   `toml:"errors"`
	Review         bool   `toml:"review"`
}

// Workflow contains daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for subweave.
//
// Configuration sections by subsystem:
//   - Paths: staging, library, log, and review directories
//   - Translation: chunk sizing, tone, worker pool, retry and repair budgets
//   - LLM: hosted translation backend connection settings
//   - Style: subtitle layout, box style, fonts, and geometry
//   - Downloader/Transcriber/Render: external tool settings
//   - Library: final placement behaviour
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and heartbeats
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Translation   Translation   `toml:"translation"`
	LLM           LLM           `toml:"llm"`
	Style         Style         `toml:"style"`
	Downloader    Downloader    `toml:"downloader"`
	Transcriber   Transcriber   `toml:"transcriber"`
	Render        Render        `toml:"render"`
	Library       Library       `toml:"library"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subweave/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. A .env file in the working
// directory is loaded first so api keys can live outside the config file.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/subweave/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subweave.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.ReviewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// LogFilePath returns the daemon log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, LogFileName)
}

// DatabasePath returns the queue database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StagingDir, "queue.db")
}

// LockFilePath returns the daemon instance lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "subweaved.lock")
}

// SocketPath returns the control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "subweave.sock")
}

// DownloaderBinary returns the yt-dlp executable name.
func (c *Config) DownloaderBinary() string {
	return "yt-dlp"
}

// TranscriberBinary returns the whisper executable name.
func (c *Config) TranscriberBinary() string {
	return "whisper"
}

// FFmpegBinary returns the ffmpeg executable name used for subtitle burns.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved hosted backend connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// GetLLM returns the hosted backend connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// StyleProfile resolves the [style] and [translation] sections into the
// profile the stylist and renderer consume.
func (c *Config) StyleProfile() subtitles.StyleProfile {
	return subtitles.StyleProfile{
		Tone:                         subtitles.Tone(strings.TrimSpace(c.Translation.Tone)),
		ForbidParentheticalOriginals: c.Translation.ForbidParentheticalOriginals,
		MaxLineWidth:                 c.Style.MaxLineWidth,
		Box:                          subtitles.BoxStyle(strings.TrimSpace(c.Style.BoxStyle)),
		PrimaryFont:                  c.Style.PrimaryFont,
		PrimaryFontSize:              c.Style.PrimaryFontSize,
		PrimaryColour:                c.Style.PrimaryColour,
		SecondaryFont:                c.Style.SecondaryFont,
		SecondaryFontSize:            c.Style.SecondaryFontSize,
		SecondaryColour:              c.Style.SecondaryColour,
		MarginVertical:               c.Style.MarginVertical,
		PlayResX:                     c.Style.PlayResX,
		PlayResY:                     c.Style.PlayResY,
	}
}

// Layout resolves the configured subtitle layout.
func (c *Config) Layout() subtitles.Layout {
	return subtitles.ParseLayout(strings.TrimSpace(c.Style.Layout))
}
