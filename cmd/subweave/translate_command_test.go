package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subweave/internal/subtitles"
	"subweave/internal/testsupport"
)

func TestTranslateCommandInteractive(t *testing.T) {
	cfg := writeTestConfig(t)

	input := filepath.Join(t.TempDir(), "episode.srt")
	testsupport.WriteSRT(t, input, "Hello there", "Goodbye now")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("[1] 你好你好\n[2] 再见再见\n.\n"))
	cmd.SetArgs([]string{"translate", input, "--interactive", "--config", cfg})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("translate: %v", err)
	}

	base := strings.TrimSuffix(input, ".srt")
	translatedPath := base + ".zh.srt"
	translated, err := subtitles.ParseSRTFile(translatedPath)
	if err != nil {
		t.Fatalf("parse translated output: %v", err)
	}
	if got := translated.Blocks[0].Text(); !strings.Contains(got, "你好") {
		t.Fatalf("expected translated text, got %q", got)
	}

	bilingual, err := subtitles.ParseSRTFile(base + ".bi.srt")
	if err != nil {
		t.Fatalf("parse bilingual output: %v", err)
	}
	first := bilingual.Blocks[0].Text()
	if !strings.Contains(first, "你好") || !strings.Contains(first, "Hello there") {
		t.Fatalf("expected stacked bilingual text, got %q", first)
	}

	assData, err := os.ReadFile(base + ".ass")
	if err != nil {
		t.Fatalf("read styled output: %v", err)
	}
	if !strings.Contains(string(assData), "[Events]") {
		t.Fatalf("expected ASS document, got %q", string(assData[:min(len(assData), 120)]))
	}

	if !strings.Contains(out.String(), "Translated 2 blocks") {
		t.Fatalf("expected summary line, got %q", out.String())
	}
}

func TestTranslateCommandRequiresKeyForHosted(t *testing.T) {
	cfg := writeTestConfig(t)

	input := filepath.Join(t.TempDir(), "clip.srt")
	testsupport.WriteSRT(t, input, "Only line")

	_, err := runCLI(t, "translate", input, "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
