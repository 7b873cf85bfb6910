package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// healthTone grades a status line. Note is neutral bookkeeping, caution means
// degraded but still running, bad means something needs operator attention.
type healthTone int

const (
	toneNote healthTone = iota
	toneGood
	toneCaution
	toneBad
)

func (t healthTone) tag() string {
	switch t {
	case toneGood:
		return "ok"
	case toneCaution:
		return "warn"
	case toneBad:
		return "fail"
	default:
		return "info"
	}
}

func (t healthTone) color() string {
	switch t {
	case toneGood:
		return ansiGreen
	case toneCaution:
		return ansiYellow
	case toneBad:
		return ansiRed
	default:
		return ""
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

const statusLabelWidth = 18

// renderStatusLine formats one badge-first health line, for example
// "  [  ok] Daemon             running (pid 42)". Only the badge is
// colorized so details stay readable on any background.
func renderStatusLine(label string, tone healthTone, detail string, colorize bool) string {
	badge := fmt.Sprintf("[%4s]", tone.tag())
	if colorize {
		if c := tone.color(); c != "" {
			badge = c + badge + ansiReset
		}
	}
	line := fmt.Sprintf("  %s %-*s", badge, statusLabelWidth, label)
	if detail != "" {
		line += " " + detail
	}
	return strings.TrimRight(line, " ")
}

const headingWidth = 40

// renderHeading draws a single rule line carrying the section title, sized to
// sit flush with the rounded tables below it.
func renderHeading(title string, colorize bool) string {
	title = strings.TrimSpace(title)
	lead := "── " + title + " "
	pad := headingWidth - len([]rune(lead))
	if pad < 2 {
		pad = 2
	}
	line := lead + strings.Repeat("─", pad)
	if colorize {
		return ansiDim + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
