package queue

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Metadata carries what the organizer needs to place finished artifacts in
// the library. Fetched items get theirs from the downloader probe; manual
// imports fall back to filename inference.
type Metadata struct {
	TitleValue      string  `json:"title"`
	Channel         string  `json:"channel,omitempty"`
	SourceURL       string  `json:"source_url,omitempty"`
	UploadDate      string  `json:"upload_date,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	LibraryPath     string  `json:"library_path,omitempty"`
	FilenameValue   string  `json:"filename,omitempty"`
}

// MetadataFromJSON builds metadata from stored JSON, falling back to basic inference.
func MetadataFromJSON(data, fallbackTitle string) Metadata {
	meta := Metadata{TitleValue: fallbackTitle, FilenameValue: fallbackTitle}
	_ = json.Unmarshal([]byte(data), &meta)
	if strings.TrimSpace(meta.TitleValue) == "" {
		meta.TitleValue = fallbackTitle
	}
	return meta
}

// NewBasicMetadata constructs a metadata record from a title and the source
// URL or path it came from. Filenames are sanitized for filesystem safety.
func NewBasicMetadata(title, source string) Metadata {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Manual Import"
	}
	return Metadata{
		TitleValue:    title,
		SourceURL:     strings.TrimSpace(source),
		FilenameValue: SanitizeFilename(title),
	}
}

// GetLibraryPath resolves the destination directory under the library root.
// An explicit override wins; otherwise videos group by channel when one is
// known and land directly under the root when not.
func (m Metadata) GetLibraryPath(root string) string {
	if m.LibraryPath != "" {
		return m.LibraryPath
	}
	channel := SanitizeFilename(m.Channel)
	if channel == "" {
		return root
	}
	return filepath.Join(root, channel)
}

func (m Metadata) GetFilename() string {
	if m.FilenameValue != "" {
		return m.FilenameValue
	}
	return m.TitleValue
}

func (m Metadata) Title() string { return m.TitleValue }

// SanitizeFilename strips path separators and other filesystem-hostile
// characters, collapsing runs of whitespace to single spaces.
func SanitizeFilename(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
		"\n", " ",
		"\t", " ",
	)
	cleaned := replacer.Replace(value)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}
