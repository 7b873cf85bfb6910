package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"subweave/internal/logging"
	"subweave/internal/queue"
	"subweave/internal/stage"
	"subweave/internal/testsupport"
	"subweave/internal/workflow"
)

type recordingStage struct {
	name     string
	executed atomic.Int64
	execErr  error
}

func (s *recordingStage) Prepare(context.Context, *queue.Item) error { return nil }

func (s *recordingStage) Execute(context.Context, *queue.Item) error {
	s.executed.Add(1)
	return s.execErr
}

func (s *recordingStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item.Status == want {
			return item
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("item %d never reached %s", id, want)
	return nil
}

func TestStartWithoutStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error when no stages are configured")
	}
}

func TestManagerRunsItemToCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewSource(t, store, "https://example.com/full", "Full Run")

	stages := map[string]*recordingStage{
		"fetcher":     {name: "fetcher"},
		"transcriber": {name: "transcriber"},
		"translator":  {name: "translator"},
		"renderer":    {name: "renderer"},
		"organizer":   {name: "organizer"},
	}
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{
		Fetcher:     stages["fetcher"],
		Transcriber: stages["transcriber"],
		Translator:  stages["translator"],
		Renderer:    stages["renderer"],
		Organizer:   stages["organizer"],
	})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	done := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if done.ErrorMessage != "" {
		t.Fatalf("unexpected error message %q", done.ErrorMessage)
	}
	for name, s := range stages {
		if s.executed.Load() != 1 {
			t.Errorf("stage %s executed %d times, want 1", name, s.executed.Load())
		}
	}

	summary := mgr.Status(context.Background())
	if !summary.Running {
		t.Fatal("expected running summary")
	}
	if len(summary.StageHealth) != len(stages) {
		t.Fatalf("expected %d stage health entries, got %d", len(stages), len(summary.StageHealth))
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Errorf("stage %s reported unhealthy", name)
		}
	}
}

func TestManagerMarksFailedItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewSource(t, store, "https://example.com/broken", "Broken")

	fetcher := &recordingStage{name: "fetcher", execErr: errors.New("download tool exploded")}
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Fetcher: fetcher})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	failed := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed item")
	}

	summary := mgr.Status(context.Background())
	if summary.LastItem == nil || summary.LastItem.ID != item.ID {
		t.Fatalf("expected last item %d in summary, got %+v", item.ID, summary.LastItem)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Fetcher: &recordingStage{name: "fetcher"}})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mgr.Stop()
	mgr.Stop()

	if mgr.Status(context.Background()).Running {
		t.Fatal("expected stopped manager")
	}
}
