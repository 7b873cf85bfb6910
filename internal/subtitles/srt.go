package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// orderingTolerance is how far a cue start may regress behind its predecessor
// before the file is rejected. Small regressions happen in machine-generated
// SRT and are clamped during parse.
const orderingTolerance = time.Second

// ParseSRT reads an SRT document into a Transcript. Cue numbers in the input
// are ignored; blocks are renumbered contiguously from 1 in file order. Cues
// without text are dropped. Unparsable timestamps and ordering regressions
// beyond tolerance fail with a FormatError.
func ParseSRT(r io.Reader) (*Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read subtitle input: %w", err)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &FormatError{Detail: "empty document"}
	}

	var blocks []Block
	var prevStart time.Duration
	cueOrdinal := 0

	for _, chunk := range strings.Split(content, "\n\n") {
		lines := splitCueLines(chunk)
		if len(lines) == 0 {
			continue
		}
		cueOrdinal++

		// The numeric cue line is optional in the wild; timing may come first.
		timingLine := lines[0]
		textStart := 1
		if !strings.Contains(timingLine, "-->") {
			if _, err := strconv.Atoi(strings.TrimSpace(timingLine)); err != nil {
				return nil, &FormatError{Cue: cueOrdinal, Detail: fmt.Sprintf("expected cue number or timing, got %q", timingLine)}
			}
			if len(lines) < 2 {
				return nil, &FormatError{Cue: cueOrdinal, Detail: "missing timing line"}
			}
			timingLine = lines[1]
			textStart = 2
		}

		start, end, err := parseTimingLine(timingLine)
		if err != nil {
			return nil, &FormatError{Cue: cueOrdinal, Detail: err.Error()}
		}
		if start >= end {
			return nil, &FormatError{Cue: cueOrdinal, Detail: fmt.Sprintf("start %s not before end %s", formatSRTTimestamp(start), formatSRTTimestamp(end))}
		}
		if start < prevStart {
			if prevStart-start > orderingTolerance {
				return nil, &FormatError{Cue: cueOrdinal, Detail: fmt.Sprintf("start regresses %s behind previous cue", prevStart-start)}
			}
			start = prevStart
			if start >= end {
				return nil, &FormatError{Cue: cueOrdinal, Detail: "cue swallowed by ordering correction"}
			}
		}

		text := make([]string, 0, len(lines)-textStart)
		for _, line := range lines[textStart:] {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				text = append(text, trimmed)
			}
		}
		if len(text) == 0 {
			continue
		}

		prevStart = start
		blocks = append(blocks, Block{
			Index: len(blocks) + 1,
			Start: start,
			End:   end,
			Lines: text,
		})
	}

	if len(blocks) == 0 {
		return nil, &FormatError{Detail: "no usable cues"}
	}
	return &Transcript{Blocks: blocks}, nil
}

// ParseSRTFile reads and parses an SRT file from disk.
func ParseSRTFile(path string) (*Transcript, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle file: %w", err)
	}
	defer file.Close()
	return ParseSRT(file)
}

// MarshalSRT serializes the transcript back to SRT. Parsing the output yields
// an equivalent transcript (whitespace normalized, cues renumbered).
func (t *Transcript) MarshalSRT() []byte {
	var buf bytes.Buffer
	for _, block := range t.Blocks {
		buf.WriteString(strconv.Itoa(block.Index))
		buf.WriteByte('\n')
		buf.WriteString(formatSRTTimestamp(block.Start))
		buf.WriteString(" --> ")
		buf.WriteString(formatSRTTimestamp(block.End))
		buf.WriteByte('\n')
		for _, line := range block.Lines {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteFile serializes the transcript to path.
func (t *Transcript) WriteFile(path string) error {
	if err := os.WriteFile(path, t.MarshalSRT(), 0o644); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	return nil
}

func splitCueLines(chunk string) []string {
	raw := strings.Split(chunk, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" && len(lines) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func parseTimingLine(line string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := parseSRTTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// Positioning hints may trail the end timestamp.
	endFields := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	end, err := parseSRTTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseSRTTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// SRT uses a comma before milliseconds; some generators emit a period.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millisText := timeParts[1]
	for len(millisText) < 3 {
		millisText += "0"
	}
	millis, errMS := strconv.Atoi(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func formatSRTTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
