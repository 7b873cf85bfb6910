package whisper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subweave/internal/services/whisper"
)

type recordedCall struct {
	name string
	args []string
}

func newRecordingRunner(calls *[]recordedCall, writeSRT bool, err error) func(ctx context.Context, name string, args ...string) error {
	return func(ctx context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: append([]string(nil), args...)})
		if err != nil {
			return err
		}
		if writeSRT {
			outputDir := argValue(args, "--output_dir")
			if outputDir == "" {
				return errors.New("no --output_dir recorded")
			}
			media := args[0]
			base := filepath.Base(media)
			base = base[:len(base)-len(filepath.Ext(base))]
			srt := filepath.Join(outputDir, base+".srt")
			return os.WriteFile(srt, []byte("1\n00:00:01,000 --> 00:00:02,000\nhello\n"), 0o644)
		}
		return nil
	}
}

func TestTranscribeWritesDerivedPath(t *testing.T) {
	outputDir := t.TempDir()
	media := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(media, []byte("video"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	var calls []recordedCall
	svc := whisper.NewService("whisper", whisper.Config{Model: "small", Language: "english"})
	svc.WithCommandRunner(newRecordingRunner(&calls, true, nil))

	srtPath, err := svc.Transcribe(context.Background(), media, outputDir)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if srtPath != filepath.Join(outputDir, "talk.srt") {
		t.Fatalf("unexpected srt path %q", srtPath)
	}
	if _, err := os.Stat(srtPath); err != nil {
		t.Fatalf("expected transcript on disk: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(calls))
	}
	args := calls[0].args
	if args[0] != media {
		t.Errorf("expected media as first arg, got %q", args[0])
	}
	if got := argValue(args, "--model"); got != "small" {
		t.Errorf("expected --model small, got %q", got)
	}
	if got := argValue(args, "--output_format"); got != "srt" {
		t.Errorf("expected --output_format srt, got %q", got)
	}
	if got := argValue(args, "--language"); got != "en" {
		t.Errorf("expected normalized --language en, got %q", got)
	}
	if got := argValue(args, "--device"); got != "cpu" {
		t.Errorf("expected cpu device by default, got %q", got)
	}
	if got := argValue(args, "--fp16"); got != "False" {
		t.Errorf("expected --fp16 False on cpu, got %q", got)
	}
}

func TestTranscribeCUDADevice(t *testing.T) {
	outputDir := t.TempDir()
	var calls []recordedCall
	svc := whisper.NewService("whisper", whisper.Config{CUDAEnabled: true})
	svc.WithCommandRunner(newRecordingRunner(&calls, true, nil))

	if _, err := svc.Transcribe(context.Background(), "/media/talk.mkv", outputDir); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	args := calls[0].args
	if got := argValue(args, "--device"); got != "cuda" {
		t.Errorf("expected cuda device, got %q", got)
	}
	if argValue(args, "--fp16") != "" {
		t.Errorf("did not expect --fp16 with cuda, got %v", args)
	}
	if got := argValue(args, "--model"); got != whisper.DefaultModel {
		t.Errorf("expected default model, got %q", got)
	}
}

func TestTranscribeMissingOutputFails(t *testing.T) {
	var calls []recordedCall
	svc := whisper.NewService("whisper", whisper.Config{})
	svc.WithCommandRunner(newRecordingRunner(&calls, false, nil))

	if _, err := svc.Transcribe(context.Background(), "/media/talk.mp4", t.TempDir()); err == nil {
		t.Fatal("expected error when whisper writes no transcript")
	}
}

func TestTranscribeRunnerError(t *testing.T) {
	var calls []recordedCall
	svc := whisper.NewService("whisper", whisper.Config{})
	svc.WithCommandRunner(newRecordingRunner(&calls, false, errors.New("model load failed")))

	if _, err := svc.Transcribe(context.Background(), "/media/talk.mp4", t.TempDir()); err == nil {
		t.Fatal("expected runner error")
	}
}

func TestTranscribeRequiresMedia(t *testing.T) {
	svc := whisper.NewService("whisper", whisper.Config{})
	if _, err := svc.Transcribe(context.Background(), "   ", t.TempDir()); err == nil {
		t.Fatal("expected error for blank media path")
	}
}

func TestDerivedSRTPath(t *testing.T) {
	got := whisper.DerivedSRTPath("/staging/queue-3/Intro [x] [720p].mp4", "/staging/queue-3")
	want := "/staging/queue-3/Intro [x] [720p].srt"
	if got != want {
		t.Fatalf("DerivedSRTPath = %q, want %q", got, want)
	}
}

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
