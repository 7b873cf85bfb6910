package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspaceArtifactPaths(t *testing.T) {
	ws := NewWorkspace("/staging/queue-4-talk")
	media := "/staging/queue-4-talk/Talk [x] [720p].mp4"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"transcript", ws.TranscriptPath(media), "/staging/queue-4-talk/Talk [x] [720p].srt"},
		{"translated", ws.TranslatedPath(media, "zh"), "/staging/queue-4-talk/Talk [x] [720p].zh.srt"},
		{"translated blank lang", ws.TranslatedPath(media, "  "), "/staging/queue-4-talk/Talk [x] [720p].translated.srt"},
		{"bilingual", ws.BilingualPath(media), "/staging/queue-4-talk/Talk [x] [720p].bi.srt"},
		{"styled", ws.SubtitlePath(media), "/staging/queue-4-talk/Talk [x] [720p].ass"},
		{"rendered", ws.RenderedPath(media), "/staging/queue-4-talk/Talk [x] [720p]_hardsub.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestWorkspaceRenderedPathDefaultsExtension(t *testing.T) {
	ws := NewWorkspace("/staging/queue-9")
	if got := ws.RenderedPath("clip"); got != "/staging/queue-9/clip_hardsub.mp4" {
		t.Fatalf("RenderedPath = %q", got)
	}
}

func TestWorkspaceEnsureAndRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "queue-3")
	ws := NewWorkspace(root)

	if err := ws.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("expected workspace dir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "media.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatal("expected workspace to be gone")
	}
}

func TestWorkspaceEnsureRequiresRoot(t *testing.T) {
	ws := NewWorkspace("   ")
	if err := ws.Ensure(); err == nil {
		t.Fatal("expected error for blank root")
	}
}

func TestItemWorkspaceNaming(t *testing.T) {
	tests := []struct {
		name  string
		id    int64
		title string
		want  string
	}{
		{"simple title", 7, "Intro to Raft", "/staging/queue-7-intro-to-raft"},
		{"punctuation collapsed", 12, "It's a Test! (v2)", "/staging/queue-12-it-s-a-test-v2"},
		{"empty title", 3, "", "/staging/queue-3"},
		{"non-latin title", 5, "分布式系统", "/staging/queue-5"},
		{"mixed title keeps ascii", 9, "Raft 详解 2024", "/staging/queue-9-raft-2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := ItemWorkspace("/staging", tt.id, tt.title)
			if ws.Root != tt.want {
				t.Errorf("ItemWorkspace root = %q, want %q", ws.Root, tt.want)
			}
			id, ok := ParseQueueDirID(filepath.Base(ws.Root))
			if !ok || id != tt.id {
				t.Errorf("ParseQueueDirID(%q) = %d, %v; want %d, true", filepath.Base(ws.Root), id, ok, tt.id)
			}
		})
	}
}

func TestItemWorkspaceTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("word ", 40)
	ws := ItemWorkspace("/staging", 2, long)
	base := filepath.Base(ws.Root)
	if len(base) > len("queue-2-")+maxSlugLen {
		t.Fatalf("workspace name too long: %q (%d bytes)", base, len(base))
	}
	if !strings.HasPrefix(base, "queue-2-word-word") {
		t.Fatalf("unexpected workspace name: %q", base)
	}
}
