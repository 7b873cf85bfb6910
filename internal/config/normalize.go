package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeStyle()
	c.normalizeDownloader()
	c.normalizeTranscriber()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("paths.review_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranslation() error {
	c.Translation.SourceLanguage = strings.ToLower(strings.TrimSpace(c.Translation.SourceLanguage))
	c.Translation.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Translation.TargetLanguage))
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
	c.Translation.Tone = strings.ToLower(strings.TrimSpace(c.Translation.Tone))
	if c.Translation.Tone == "" {
		c.Translation.Tone = defaultTone
	}
	if c.Translation.WindowSize <= 0 {
		c.Translation.WindowSize = defaultWindowSize
	}
	if c.Translation.ContextOverlap < 0 {
		c.Translation.ContextOverlap = defaultContextOverlap
	}
	if c.Translation.Workers <= 0 {
		c.Translation.Workers = defaultWorkers
	}
	if c.Translation.RequestsPerMinute <= 0 {
		c.Translation.RequestsPerMinute = defaultRequestsPerMinute
	}
	if c.Translation.MaxRetries < 0 {
		c.Translation.MaxRetries = defaultMaxRetries
	}
	if c.Translation.RepairPasses < 0 {
		c.Translation.RepairPasses = defaultRepairPasses
	}
	if c.Translation.PersonaFile != "" {
		expanded, err := expandPath(c.Translation.PersonaFile)
		if err != nil {
			return fmt.Errorf("translation.persona_file: %w", err)
		}
		c.Translation.PersonaFile = expanded
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, name := range []string{"SUBWEAVE_LLM_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "DEEPSEEK_API_KEY", "MOONSHOT_API_KEY"} {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeStyle() {
	c.Style.Layout = strings.ToLower(strings.TrimSpace(c.Style.Layout))
	if c.Style.Layout == "" {
		c.Style.Layout = defaultLayout
	}
	c.Style.BoxStyle = strings.ToLower(strings.TrimSpace(c.Style.BoxStyle))
	if c.Style.BoxStyle == "" {
		c.Style.BoxStyle = defaultBoxStyle
	}
	if c.Style.MaxLineWidth <= 0 {
		c.Style.MaxLineWidth = defaultMaxLineWidth
	}
	if strings.TrimSpace(c.Style.PrimaryFont) == "" {
		c.Style.PrimaryFont = defaultPrimaryFont
	}
	if c.Style.PrimaryFontSize <= 0 {
		c.Style.PrimaryFontSize = defaultPrimaryFontSize
	}
	if strings.TrimSpace(c.Style.PrimaryColour) == "" {
		c.Style.PrimaryColour = defaultPrimaryColour
	}
	if strings.TrimSpace(c.Style.SecondaryFont) == "" {
		c.Style.SecondaryFont = defaultSecondaryFont
	}
	if c.Style.SecondaryFontSize <= 0 {
		c.Style.SecondaryFontSize = defaultSecondaryFontSize
	}
	if strings.TrimSpace(c.Style.SecondaryColour) == "" {
		c.Style.SecondaryColour = defaultSecondaryColour
	}
	if c.Style.MarginVertical < 0 {
		c.Style.MarginVertical = defaultMarginVertical
	}
	if c.Style.PlayResX <= 0 {
		c.Style.PlayResX = defaultPlayResX
	}
	if c.Style.PlayResY <= 0 {
		c.Style.PlayResY = defaultPlayResY
	}
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Format = strings.TrimSpace(c.Downloader.Format)
	if c.Downloader.Format == "" {
		c.Downloader.Format = defaultDownloadFormat
	}
	c.Downloader.OutputTemplate = strings.TrimSpace(c.Downloader.OutputTemplate)
	if c.Downloader.OutputTemplate == "" {
		c.Downloader.OutputTemplate = defaultOutputTemplate
	}
	c.Downloader.CookiesFile = strings.TrimSpace(c.Downloader.CookiesFile)
	if c.Downloader.CookiesFile != "" {
		if expanded, err := expandPath(c.Downloader.CookiesFile); err == nil {
			c.Downloader.CookiesFile = expanded
		}
	}
	if c.Downloader.TimeoutSeconds <= 0 {
		c.Downloader.TimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	if c.Transcriber.Model == "" {
		c.Transcriber.Model = defaultTranscriberModel
	}
	c.Transcriber.Language = strings.ToLower(strings.TrimSpace(c.Transcriber.Language))
	if c.Transcriber.TimeoutSeconds <= 0 {
		c.Transcriber.TimeoutSeconds = defaultTranscriberTimeout
	}
}

func (c *Config) normalizeRender() {
	c.Render.VideoCodec = strings.TrimSpace(c.Render.VideoCodec)
	if c.Render.VideoCodec == "" {
		c.Render.VideoCodec = defaultVideoCodec
	}
	if c.Render.CRF <= 0 {
		c.Render.CRF = defaultCRF
	}
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultRenderPreset
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultRenderTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
