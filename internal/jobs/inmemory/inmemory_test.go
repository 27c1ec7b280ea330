package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/rfm-insights/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.SegmentationJob{
		JobID:    "job-1",
		AsOfDate: "2024-06-30",
		Status:   jobs.JobStatusPending,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.AsOfDate != "2024-06-30" || got.Status != jobs.JobStatusPending {
		t.Errorf("unexpected job: %+v", got)
	}

	// Stored value is a copy, not shared with the caller.
	job.Status = jobs.JobStatusFailed
	got, _ = store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusPending {
		t.Error("store leaked a reference to the caller's job")
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	if err := NewStore().SaveJob(context.Background(), &jobs.SegmentationJob{}); err == nil {
		t.Error("expected error for empty job ID")
	}
}

func TestStore_GetMissing(t *testing.T) {
	if _, err := NewStore().GetJob(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown job ID")
	}
}

func TestStore_ListJobsFiltered(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Now()

	for i, status := range []jobs.JobStatus{
		jobs.JobStatusPending, jobs.JobStatusCompleted, jobs.JobStatusCompleted,
	} {
		_ = store.SaveJob(ctx, &jobs.SegmentationJob{
			JobID:     string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	completed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("got %d completed jobs, want 2", len(completed))
	}
	// Newest first.
	if !completed[0].CreatedAt.After(completed[1].CreatedAt) {
		t.Error("jobs not sorted newest first")
	}

	limited, _ := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit not applied, got %d jobs", len(limited))
	}
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	processed := make(map[string]bool)
	done := make(chan struct{}, 1)

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		processed[job.GetID()] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.SegmentationJob{AsOfDate: "2024-06-30"}
	if err := queue.PublishSegmentation(ctx, job); err != nil {
		t.Fatalf("PublishSegmentation failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish did not assign a job ID")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	mu.Lock()
	if !processed[job.JobID] {
		t.Error("handler did not receive the published job")
	}
	mu.Unlock()

	// Give the worker a moment to persist the final state.
	deadline := time.Now().Add(time.Second)
	for {
		got, err := store.GetJob(ctx, job.JobID)
		if err == nil && got.Status == jobs.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never reached completed status, last: %+v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	err := queue.PublishSegmentation(context.Background(), &jobs.SegmentationJob{})
	if err == nil {
		t.Error("expected error publishing to closed queue")
	}
}
