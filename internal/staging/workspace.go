package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the per-item staging directory the stages work inside.
// Artifact names derive from the media file base so a rerun finds the
// outputs an earlier attempt left behind.
type Workspace struct {
	Root string
}

// NewWorkspace wraps root without touching the filesystem.
func NewWorkspace(root string) Workspace {
	return Workspace{Root: strings.TrimSpace(root)}
}

// ItemWorkspace derives the workspace for a queue item inside stagingDir.
// Directory names follow the queue-{id}-{slug} convention that CleanOrphaned
// relies on, so every stage and the cleanup pass agree on ownership.
func ItemWorkspace(stagingDir string, itemID int64, title string) Workspace {
	name := fmt.Sprintf("queue-%d", itemID)
	if slug := slugify(title); slug != "" {
		name += "-" + slug
	}
	return NewWorkspace(filepath.Join(strings.TrimSpace(stagingDir), name))
}

const maxSlugLen = 48

func slugify(title string) string {
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
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// Ensure creates the workspace directory.
func (w Workspace) Ensure() error {
	if w.Root == "" {
		return errors.New("staging workspace root required")
	}
	return os.MkdirAll(w.Root, 0o755)
}

// Remove deletes the workspace and everything in it.
func (w Workspace) Remove() error {
	if w.Root == "" {
		return nil
	}
	return os.RemoveAll(w.Root)
}

func mediaBase(mediaPath string) string {
	base := filepath.Base(mediaPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TranscriptPath is where the transcriber writes the source-language SRT.
func (w Workspace) TranscriptPath(mediaPath string) string {
	return filepath.Join(w.Root, mediaBase(mediaPath)+".srt")
}

// TranslatedPath is the target-language SRT for mediaPath.
func (w Workspace) TranslatedPath(mediaPath, lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = "translated"
	}
	return filepath.Join(w.Root, fmt.Sprintf("%s.%s.srt", mediaBase(mediaPath), lang))
}

// BilingualPath is the composed dual-language SRT for mediaPath.
func (w Workspace) BilingualPath(mediaPath string) string {
	return filepath.Join(w.Root, mediaBase(mediaPath)+".bi.srt")
}

// SubtitlePath is the styled ASS document handed to the burner.
func (w Workspace) SubtitlePath(mediaPath string) string {
	return filepath.Join(w.Root, mediaBase(mediaPath)+".ass")
}

// RenderedPath is the hardsubbed video the burn step produces.
func (w Workspace) RenderedPath(mediaPath string) string {
	ext := filepath.Ext(mediaPath)
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(w.Root, mediaBase(mediaPath)+"_hardsub"+ext)
}
