package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"subweave/internal/textutil"
)

// StagingRoot returns the per-item staging directory rooted at base. The
// segment combines the queue ID with a sanitized title slug so directories
// stay unique even when two videos share a name.
func (i Item) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := fmt.Sprintf("queue-%d", i.ID)
	if slug := sanitizeSegment(i.Title); slug != "" {
		segment = segment + "-" + slug
	}
	return filepath.Join(base, segment)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	return value
}
