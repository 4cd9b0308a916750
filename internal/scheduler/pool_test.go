package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedstream/internal/repository"
	"feedstream/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTaskRepo is an in-memory repository.TaskRepository for tests.
type stubTaskRepo struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*repository.TaskRecord
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{records: make(map[int64]*repository.TaskRecord)}
}

func (s *stubTaskRepo) Create(ctx context.Context, rec *repository.TaskRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	cp := *rec
	cp.ID = id
	s.records[id] = &cp
	return id, nil
}

func (s *stubTaskRepo) MarkFinished(ctx context.Context, id int64, status repository.TaskStatus, result, errMsg string, stoppedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("task %d not found", id)
	}
	rec.Status = status
	rec.Result = result
	rec.Error = errMsg
	rec.StoppedAt = &stoppedAt
	return nil
}

func (s *stubTaskRepo) Get(ctx context.Context, id int64) (*repository.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("task %d not found", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *stubTaskRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.StoppedAt != nil && rec.StoppedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *stubTaskRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func testConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Workers = 2
	cfg.QueueSize = 8
	cfg.JobTimeout = 5 * time.Second
	cfg.HousekeepingCron = "0 0 31 2 *" // never fires (Feb 31 doesn't exist)
	return cfg
}

func TestPool_EnqueueRunsJobAndRecordsSuccess(t *testing.T) {
	repo := newStubTaskRepo()
	pool := scheduler.New(repo, discardLogger(), testConfig())
	defer pool.Shutdown(context.Background())

	var ran int32
	done := make(chan struct{})
	id, err := pool.Enqueue(context.Background(), "aggregate_feed:1", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&ran, 1)
		close(done)
		return "42 articles", nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run in time")
	}

	// MarkFinished happens just after the closure returns; poll briefly.
	var rec *repository.TaskRecord
	for i := 0; i < 50; i++ {
		rec, _ = pool.GetTask(context.Background(), id)
		if rec != nil && rec.Status != repository.TaskStatusRunning {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected job to run exactly once, ran %d times", ran)
	}
	if rec == nil {
		t.Fatal("expected a recorded task")
	}
	if rec.Status != repository.TaskStatusSuccess {
		t.Errorf("expected status success, got %s", rec.Status)
	}
	if rec.Result != "42 articles" {
		t.Errorf("expected result to be persisted, got %q", rec.Result)
	}
}

func TestPool_EnqueueRecordsFailure(t *testing.T) {
	repo := newStubTaskRepo()
	pool := scheduler.New(repo, discardLogger(), testConfig())
	defer pool.Shutdown(context.Background())

	wantErr := errors.New("feed unreachable")
	id, err := pool.Enqueue(context.Background(), "aggregate_feed:2", func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var rec *repository.TaskRecord
	for i := 0; i < 50; i++ {
		rec, _ = pool.GetTask(context.Background(), id)
		if rec != nil && rec.Status != repository.TaskStatusRunning {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if rec == nil {
		t.Fatal("expected a recorded task")
	}
	if rec.Status != repository.TaskStatusFailure {
		t.Errorf("expected status failure, got %s", rec.Status)
	}
	if rec.Error != wantErr.Error() {
		t.Errorf("expected error %q, got %q", wantErr.Error(), rec.Error)
	}
}

func TestPool_MultipleJobsNoOrderingGuaranteeButAllComplete(t *testing.T) {
	repo := newStubTaskRepo()
	pool := scheduler.New(repo, discardLogger(), testConfig())
	defer pool.Shutdown(context.Background())

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		if _, err := pool.Enqueue(context.Background(), fmt.Sprintf("job-%d", i), func(ctx context.Context) (string, error) {
			defer wg.Done()
			return "ok", nil
		}); err != nil {
			t.Fatalf("Enqueue job %d: %v", i, err)
		}
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(3 * time.Second):
		t.Fatal("not all jobs completed in time")
	}

	if repo.count() != n {
		t.Fatalf("expected %d task records, got %d", n, repo.count())
	}
}

func TestPool_ShutdownWaitsForInFlightJobs(t *testing.T) {
	repo := newStubTaskRepo()
	pool := scheduler.New(repo, discardLogger(), testConfig())

	started := make(chan struct{})
	finish := make(chan struct{})
	_, err := pool.Enqueue(context.Background(), "slow-job", func(ctx context.Context) (string, error) {
		close(started)
		<-finish
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	<-started
	close(finish)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
