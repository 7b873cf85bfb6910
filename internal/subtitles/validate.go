package subtitles

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// CueCount counts the non-empty cues in an SRT file without fully parsing it.
// Used by resume heuristics that must tolerate files the strict parser would
// reject.
func CueCount(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, chunk := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(chunk) != "" {
			count++
		}
	}
	return count, nil
}

// CueBounds scans an SRT file for the earliest start and latest end time in
// seconds. Returns (0, 0) when no timing line parses.
func CueBounds(path string) (float64, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read srt: %w", err)
	}
	first := math.Inf(1)
	var last float64
	found := false
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if start, err := parseSRTTimestamp(strings.TrimSpace(parts[0])); err == nil {
			if start.Seconds() < first {
				first = start.Seconds()
			}
			found = true
		}
		endFields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(endFields) == 0 {
			continue
		}
		if end, err := parseSRTTimestamp(endFields[0]); err == nil {
			if end.Seconds() > last {
				last = end.Seconds()
			}
		}
	}
	if !found {
		return 0, last, nil
	}
	return first, last, nil
}

// ValidateSRTContent checks an SRT file for format issues. Returns a list of
// issues found; an empty slice means validation passed. When videoSeconds is
// positive the subtitle span is compared against it.
func ValidateSRTContent(path string, videoSeconds float64) []string {
	var issues []string

	cues, err := CueCount(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("read_error: %v", err))
		return issues
	}
	if cues == 0 {
		issues = append(issues, "empty_subtitle_file")
		return issues
	}

	first, last, err := CueBounds(path)
	if err != nil {
		issues = append(issues, fmt.Sprintf("timestamp_parse_error: %v", err))
	} else if first == 0 && last == 0 {
		issues = append(issues, "no_valid_timestamps")
	}

	if videoSeconds > 0 && last > 0 {
		if last > videoSeconds*1.05 {
			issues = append(issues, fmt.Sprintf("duration_mismatch: subtitles end %.1fs past video", last-videoSeconds))
		}
		if last < videoSeconds*0.5 {
			issues = append(issues, fmt.Sprintf("duration_mismatch: subtitles cover only %.0f%% of video", last/videoSeconds*100))
		}
	}

	return issues
}

// CoversDuration reports whether the subtitle file spans at least ratio of the
// given media duration. Used to decide whether an existing transcript can be
// reused instead of re-running transcription.
func CoversDuration(path string, videoSeconds, ratio float64) bool {
	if videoSeconds <= 0 {
		return false
	}
	_, last, err := CueBounds(path)
	if err != nil {
		return false
	}
	return last >= videoSeconds*ratio
}
