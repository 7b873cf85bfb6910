package ytdlp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subweave/internal/services/ytdlp"
)

type stubExecutor struct {
	lines []string
	err   error
	calls int
	args  [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	s.calls++
	cloned := append([]string(nil), args...)
	s.args = append(s.args, cloned)
	for _, line := range s.lines {
		onStdout(line)
	}
	return s.err
}

// fileCreatingExecutor writes the media and caption files a real yt-dlp run
// would leave behind in the --output directory.
type fileCreatingExecutor struct {
	mediaName    string
	subtitleName string
	lines        []string
	failWhen     func(args []string) error
	calls        int
	args         [][]string
}

func (f *fileCreatingExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	f.calls++
	cloned := append([]string(nil), args...)
	f.args = append(f.args, cloned)
	for _, line := range f.lines {
		if onStdout != nil {
			onStdout(line)
		}
	}
	if f.failWhen != nil {
		if err := f.failWhen(args); err != nil {
			return err
		}
	}
	destDir := outputDir(args)
	if destDir == "" {
		return errors.New("no --output flag recorded")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	if f.mediaName != "" {
		if err := os.WriteFile(filepath.Join(destDir, f.mediaName), []byte("video"), 0o644); err != nil {
			return err
		}
	}
	if f.subtitleName != "" {
		if err := os.WriteFile(filepath.Join(destDir, f.subtitleName), []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func outputDir(args []string) string {
	for i, arg := range args {
		if arg == "--output" && i+1 < len(args) {
			return filepath.Dir(args[i+1])
		}
	}
	return ""
}

func TestDownloadErrorsWhenNoOutputProduced(t *testing.T) {
	exec := &fileCreatingExecutor{lines: []string{"[download]  10.0% of 5MiB"}}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.Download(context.Background(), "https://example.com/v/1", t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error when yt-dlp produces no media file")
	}
	if !strings.Contains(err.Error(), "no media file") {
		t.Fatalf("expected 'no media file' error, got: %v", err)
	}
}

func TestDownloadReturnsExecutorError(t *testing.T) {
	exec := &stubExecutor{err: errors.New("boom"), lines: []string{"ERROR: unable to download video data"}}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Download(context.Background(), "https://example.com/v/1", t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error from executor")
	}
	if !strings.Contains(err.Error(), "unable to download video data") {
		t.Fatalf("expected surfaced ERROR line, got: %v", err)
	}
}

func TestDownloadFindsMediaAndSidecar(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "staging")
	exec := &fileCreatingExecutor{
		mediaName:    "Intro to Raft [abc123] [1080p].mp4",
		subtitleName: "Intro to Raft [abc123] [1080p].en.srt",
	}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{SubtitleLangs: "en"}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Download(context.Background(), "https://example.com/v/abc123", destDir, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if filepath.Base(result.MediaPath) != "Intro to Raft [abc123] [1080p].mp4" {
		t.Fatalf("unexpected media path %q", result.MediaPath)
	}
	if filepath.Base(result.SubtitlePath) != "Intro to Raft [abc123] [1080p].en.srt" {
		t.Fatalf("unexpected subtitle path %q", result.SubtitlePath)
	}

	if len(exec.args) != 1 {
		t.Fatalf("expected one invocation, got %d", len(exec.args))
	}
	args := exec.args[0]
	for _, want := range []string{"--newline", "--no-playlist", "--merge-output-format", "--write-subs", "--write-auto-subs", "--convert-subs"} {
		if !containsArg(args, want) {
			t.Errorf("expected %s in args, got %v", want, args)
		}
	}
	if got := argValue(args, "--sub-langs"); got != "en" {
		t.Errorf("expected --sub-langs en, got %q", got)
	}
	if got := argValue(args, "--format"); got != ytdlp.DefaultFormat {
		t.Errorf("expected default format, got %q", got)
	}
	if got := argValue(args, "--output"); filepath.Dir(got) != destDir {
		t.Errorf("expected output under %s, got %q", destDir, got)
	}
}

func TestDownloadRetriesWithoutCookies(t *testing.T) {
	destDir := t.TempDir()
	exec := &fileCreatingExecutor{
		mediaName: "clip [x] [720p].mp4",
		failWhen: func(args []string) error {
			if containsArg(args, "--cookies") {
				return errors.New("cookie jar rejected")
			}
			return nil
		},
	}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{CookiesFile: "/tmp/cookies.txt"}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Download(context.Background(), "https://example.com/v/x", destDir, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if result.MediaPath == "" {
		t.Fatal("expected media path from retry")
	}
	if exec.calls != 2 {
		t.Fatalf("expected retry without cookies, got %d calls", exec.calls)
	}
	if !containsArg(exec.args[0], "--cookies") {
		t.Fatalf("expected first attempt to pass cookies, got %v", exec.args[0])
	}
	if containsArg(exec.args[1], "--cookies") {
		t.Fatalf("expected retry to drop cookies, got %v", exec.args[1])
	}
}

func TestDownloadProgressParsing(t *testing.T) {
	destDir := t.TempDir()
	exec := &fileCreatingExecutor{
		mediaName: "clip [x] [720p].mp4",
		lines: []string{
			"[download] Destination: clip [x] [720p].f137.mp4",
			"[download]  42.5% of  123.45MiB at    1.23MiB/s ETA 00:12",
			"[download] 100% of 123.45MiB in 00:01:40",
			`[Merger] Merging formats into "clip [x] [720p].mp4"`,
		},
	}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var updates []ytdlp.ProgressUpdate
	_, err = client.Download(context.Background(), "https://example.com/v/x", destDir, func(u ytdlp.ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d: %#v", len(updates), updates)
	}
	if updates[0].Stage != "Downloading" || updates[0].Percent != 42.5 {
		t.Errorf("unexpected first update: %#v", updates[0])
	}
	if updates[1].Percent != 100 {
		t.Errorf("expected completion update, got %#v", updates[1])
	}
	if updates[2].Stage != "Merging" {
		t.Errorf("expected merger update, got %#v", updates[2])
	}
}

func TestProbeParsesMetadata(t *testing.T) {
	exec := &stubExecutor{lines: []string{
		"WARNING: unable to look up account",
		`{"id":"abc123","title":" Intro to Raft ","uploader":"MIT 6.824","upload_date":"20240110","duration":3605.2,"width":1920,"height":1080,"webpage_url":"https://example.com/v/abc123"}`,
	}}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	meta, err := client.Probe(context.Background(), "https://example.com/v/abc123")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if meta.ID != "abc123" {
		t.Errorf("unexpected id %q", meta.ID)
	}
	if meta.Title != "Intro to Raft" {
		t.Errorf("expected trimmed title, got %q", meta.Title)
	}
	if meta.Channel != "MIT 6.824" {
		t.Errorf("expected uploader fallback for channel, got %q", meta.Channel)
	}
	if meta.DurationSeconds != 3605.2 {
		t.Errorf("unexpected duration %v", meta.DurationSeconds)
	}
	if meta.Height != 1080 {
		t.Errorf("unexpected height %d", meta.Height)
	}

	if len(exec.args) != 1 {
		t.Fatalf("expected one invocation, got %d", len(exec.args))
	}
	for _, want := range []string{"--dump-single-json", "--skip-download", "--no-playlist"} {
		if !containsArg(exec.args[0], want) {
			t.Errorf("expected %s in probe args, got %v", want, exec.args[0])
		}
	}
}

func TestProbeRequiresMetadata(t *testing.T) {
	exec := &stubExecutor{lines: []string{"WARNING: something"}}
	client, err := ytdlp.New("yt-dlp", ytdlp.Config{}, ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Probe(context.Background(), "https://example.com/v/1"); err == nil {
		t.Fatal("expected error when no metadata returned")
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ytdlp.New("   ", ytdlp.Config{}); err == nil {
		t.Fatal("expected error for blank binary")
	}
}

func containsArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
