package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func setHelperCommand(t *testing.T, mode string, onInvoke func(args []string)) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if onInvoke != nil {
			onInvoke(append([]string(nil), args...))
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "burn-success":
		fmt.Println("out_time_us=30000000")
		fmt.Println("speed=2.5x")
		fmt.Println("out_time_us=60000000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "burn-failure":
		fmt.Println("Error initializing filter 'ass'")
		os.Exit(1)
	case "probe-json":
		fmt.Println(`{"streams":[{"index":0,"codec_type":"video","width":1280,"height":720},{"index":1,"codec_type":"audio","channels":2}],"format":{"filename":"clip.mp4","nb_streams":2,"duration":"120.500000","format_name":"mov,mp4"}}`)
		os.Exit(0)
	case "probe-garbage":
		fmt.Println("not json")
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func TestBurnReportsProgress(t *testing.T) {
	tmp := t.TempDir()
	output := filepath.Join(tmp, "clip_hardsub.mp4")
	setHelperCommand(t, "burn-success", func(args []string) {
		if err := os.WriteFile(args[len(args)-1], []byte("video"), 0o644); err != nil {
			t.Errorf("write output stub: %v", err)
		}
	})

	cli := NewCLI("ffmpeg", "ffprobe", Config{})
	var updates []ProgressUpdate
	err := cli.Burn(context.Background(), "/media/clip.mp4", "/staging/clip.ass", output, 120, func(u ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Burn returned error: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d: %#v", len(updates), updates)
	}
	if updates[0].Percent != 25 {
		t.Errorf("expected 25%% first, got %v", updates[0].Percent)
	}
	if updates[1].Percent != 50 {
		t.Errorf("expected 50%% second, got %v", updates[1].Percent)
	}
	if !strings.Contains(updates[1].Message, "at 2.5x") {
		t.Errorf("expected speed in message, got %q", updates[1].Message)
	}
	if !strings.Contains(updates[1].Message, "00:01:00 of 00:02:00") {
		t.Errorf("expected clock message, got %q", updates[1].Message)
	}
	if updates[2].Percent != 100 {
		t.Errorf("expected final 100%%, got %v", updates[2].Percent)
	}
}

func TestBurnArgs(t *testing.T) {
	tmp := t.TempDir()
	output := filepath.Join(tmp, "out.mp4")
	var captured []string
	setHelperCommand(t, "burn-success", func(args []string) {
		captured = append([]string(nil), args...)
		if err := os.WriteFile(args[len(args)-1], []byte("video"), 0o644); err != nil {
			t.Errorf("write output stub: %v", err)
		}
	})

	cli := NewCLI("ffmpeg", "ffprobe", Config{VideoCodec: "libx265", CRF: 20, Preset: "fast"})
	if err := cli.Burn(context.Background(), "/media/in.mp4", "/staging/subs.ass", output, 0, nil); err != nil {
		t.Fatalf("Burn returned error: %v", err)
	}

	wantPairs := map[string]string{
		"-c:v":      "libx265",
		"-crf":      "20",
		"-preset":   "fast",
		"-c:a":      "copy",
		"-progress": "pipe:1",
		"-vf":       "ass=/staging/subs.ass",
	}
	for flag, want := range wantPairs {
		if got := argValue(captured, flag); got != want {
			t.Errorf("expected %s %s, got %q (args %v)", flag, want, got, captured)
		}
	}
	if captured[len(captured)-1] != output {
		t.Errorf("expected output as final arg, got %v", captured)
	}
}

func TestBurnFailureSurfacesDiagnostic(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.mp4")
	setHelperCommand(t, "burn-failure", nil)

	cli := NewCLI("ffmpeg", "ffprobe", Config{})
	err := cli.Burn(context.Background(), "/media/in.mp4", "/staging/subs.ass", output, 60, nil)
	if err == nil {
		t.Fatal("expected burn failure")
	}
	if !strings.Contains(err.Error(), "Error initializing filter") {
		t.Fatalf("expected diagnostic in error, got: %v", err)
	}
}

func TestBurnRemovesStaleOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(output, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale output: %v", err)
	}
	// The helper never recreates the file, so success here would mean the
	// stale copy survived.
	setHelperCommand(t, "burn-success", nil)

	cli := NewCLI("ffmpeg", "ffprobe", Config{})
	err := cli.Burn(context.Background(), "/media/in.mp4", "/staging/subs.ass", output, 60, nil)
	if err == nil {
		t.Fatal("expected error when ffmpeg produces no output")
	}
	if !strings.Contains(err.Error(), "no output") {
		t.Fatalf("expected 'no output' error, got: %v", err)
	}
}

func TestBurnValidatesPaths(t *testing.T) {
	cli := NewCLI("", "", Config{})
	cases := []struct {
		name             string
		media, subs, out string
	}{
		{"missing media", "", "s.ass", "o.mp4"},
		{"missing subtitle", "m.mp4", "", "o.mp4"},
		{"missing output", "m.mp4", "s.ass", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := cli.Burn(context.Background(), tc.media, tc.subs, tc.out, 0, nil); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEscapeFilterPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/plain/path.ass", "/plain/path.ass"},
		{"C:\\subs\\file.ass", `C\:\\subs\\file.ass`},
		{"/queue-3/It's [1080p].ass", `/queue-3/It\'s \[1080p\].ass`},
		{"/a,b;c.ass", `/a\,b\;c.ass`},
	}
	for _, tt := range tests {
		if got := escapeFilterPath(tt.in); got != tt.want {
			t.Errorf("escapeFilterPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHHMMSS(t *testing.T) {
	if got := hhmmss(3725.9); got != "01:02:05" {
		t.Errorf("hhmmss(3725.9) = %q", got)
	}
	if got := hhmmss(-5); got != "00:00:00" {
		t.Errorf("hhmmss(-5) = %q", got)
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
