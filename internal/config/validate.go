package config

import (
	"errors"
	"fmt"
)

// Tones supported by the stylist.
var validTones = map[string]struct{}{
	"casual": {},
	"formal": {},
	"edgy":   {},
}

// Layouts supported by the composer.
var validLayouts = map[string]struct{}{
	"bilingual":      {},
	"primary_only":   {},
	"secondary_only": {},
}

// Box styles supported by the renderer.
var validBoxStyles = map[string]struct{}{
	"box":     {},
	"outline": {},
	"none":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateStyle(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TargetLanguage == "" {
		return errors.New("translation.target_language must be set")
	}
	if _, ok := validTones[c.Translation.Tone]; !ok {
		return fmt.Errorf("translation.tone must be one of casual, formal, edgy (got %q)", c.Translation.Tone)
	}
	if c.Translation.WindowSize < 1 {
		return errors.New("translation.window_size must be >= 1")
	}
	if c.Translation.ContextOverlap >= c.Translation.WindowSize {
		return errors.New("translation.context_overlap must be smaller than translation.window_size")
	}
	if c.Translation.Workers < 1 || c.Translation.Workers > 16 {
		return errors.New("translation.workers must be between 1 and 16")
	}
	if c.Translation.RequestsPerMinute < 1 {
		return errors.New("translation.requests_per_minute must be >= 1")
	}
	return nil
}

func (c *Config) validateLLM() error {
	// The api key is deliberately not required here: interactive translation
	// and queue inspection work without one. The daemon preflight and the
	// hosted backend constructor enforce it where it is actually needed.
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStyle() error {
	if _, ok := validLayouts[c.Style.Layout]; !ok {
		return fmt.Errorf("style.layout must be one of bilingual, primary_only, secondary_only (got %q)", c.Style.Layout)
	}
	if _, ok := validBoxStyles[c.Style.BoxStyle]; !ok {
		return fmt.Errorf("style.box_style must be one of box, outline, none (got %q)", c.Style.BoxStyle)
	}
	if c.Style.MaxLineWidth < 10 {
		return errors.New("style.max_line_width must be >= 10")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"downloader.timeout_seconds":    c.Downloader.TimeoutSeconds,
		"transcriber.timeout_seconds":   c.Transcriber.TimeoutSeconds,
		"render.timeout_seconds":        c.Render.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
