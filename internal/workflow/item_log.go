package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/queue"
)

const maxLogSlugLen = 40

// ItemLogger allocates per-item log files under <log dir>/items so that each
// queue item's processing history can be read and tailed in isolation from
// the daemon log.
type ItemLogger struct {
	cfg     *config.Config
	baseDir string
}

// NewItemLogger constructs an ItemLogger rooted in the configured log directory.
func NewItemLogger(cfg *config.Config) *ItemLogger {
	baseDir := ""
	if cfg != nil && strings.TrimSpace(cfg.Paths.LogDir) != "" {
		baseDir = filepath.Join(cfg.Paths.LogDir, "items")
	}
	return &ItemLogger{cfg: cfg, baseDir: baseDir}
}

// Ensure returns the log path recorded on the item, allocating a fresh one
// when the item has none. The second return reports whether a new path was
// assigned; the caller persists the item so later stages append to the same
// file.
func (l *ItemLogger) Ensure(item *queue.Item) (string, bool, error) {
	if item == nil {
		return "", false, errors.New("queue item required")
	}
	if existing := strings.TrimSpace(item.ItemLogPath); existing != "" {
		return existing, false, nil
	}
	if l.baseDir == "" {
		return "", false, errors.New("log directory not configured")
	}
	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return "", false, fmt.Errorf("ensure item log directory: %w", err)
	}
	name := fmt.Sprintf("%s-item-%d-%s.log",
		time.Now().UTC().Format("20060102-150405"),
		item.ID,
		logSlug(item.Title),
	)
	path := filepath.Join(l.baseDir, name)
	item.ItemLogPath = path
	return path, true, nil
}

// CreateHandler opens a handler appending to path with the same level and
// format as the daemon log.
func (l *ItemLogger) CreateHandler(path string) (slog.Handler, error) {
	opts := logging.Options{
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	}
	if l.cfg != nil {
		opts.Level = l.cfg.Logging.Level
		opts.Format = l.cfg.Logging.Format
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	return logger.Handler(), nil
}

func logSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
		if b.Len() >= maxLogSlugLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
