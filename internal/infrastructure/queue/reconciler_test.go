package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

// flakyUserRepo fails a configurable number of times before accepting writes,
// and records every applied repair.
type flakyUserRepo struct {
	mu       sync.Mutex
	failures int
	calls    int
	missing  map[string]bool
	appended []string
	removed  []string
}

func newFlakyUserRepo(failures int) *flakyUserRepo {
	return &flakyUserRepo{failures: failures, missing: make(map[string]bool)}
}

func (r *flakyUserRepo) Insert(context.Context, *domain.User) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (r *flakyUserRepo) FindByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (r *flakyUserRepo) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (r *flakyUserRepo) AppendPromptID(_ context.Context, userID, promptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.missing[userID] {
		return domain.ErrUserNotFound
	}
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	r.appended = append(r.appended, userID+":"+promptID)
	return nil
}

func (r *flakyUserRepo) RemovePromptID(_ context.Context, userID, promptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.missing[userID] {
		return domain.ErrUserNotFound
	}
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	r.removed = append(r.removed, userID+":"+promptID)
	return nil
}

func (r *flakyUserRepo) snapshot() (appended, removed []string, calls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.appended...), append([]string(nil), r.removed...), r.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestReconciler_AttachAppliedAfterTransientFailure(t *testing.T) {
	repo := newFlakyUserRepo(1)
	r := NewReconciler(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Enqueue(ports.BackrefTask{ID: "t1", Op: ports.BackrefAttach, UserID: "u001", PromptID: "p001"})

	ok := waitFor(t, 3*time.Second, func() bool {
		appended, _, _ := repo.snapshot()
		return len(appended) == 1
	})
	if !ok {
		t.Fatal("attach repair never applied")
	}
	appended, _, calls := repo.snapshot()
	if appended[0] != "u001:p001" {
		t.Errorf("wrong repair applied: %v", appended)
	}
	if calls != 2 {
		t.Errorf("expected 1 failure plus 1 success, got %d calls", calls)
	}
}

func TestReconciler_DetachApplied(t *testing.T) {
	repo := newFlakyUserRepo(0)
	r := NewReconciler(2, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Enqueue(ports.BackrefTask{ID: "t1", Op: ports.BackrefDetach, UserID: "u001", PromptID: "p001"})

	ok := waitFor(t, time.Second, func() bool {
		_, removed, _ := repo.snapshot()
		return len(removed) == 1
	})
	if !ok {
		t.Fatal("detach repair never applied")
	}
}

func TestReconciler_MissingUserNotRetried(t *testing.T) {
	repo := newFlakyUserRepo(0)
	repo.missing["ghost"] = true
	r := NewReconciler(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	r.Enqueue(ports.BackrefTask{ID: "t1", Op: ports.BackrefAttach, UserID: "ghost", PromptID: "p001"})

	waitFor(t, time.Second, func() bool {
		_, _, calls := repo.snapshot()
		return calls >= 1
	})
	// give a would-be retry time to fire
	time.Sleep(300 * time.Millisecond)

	if _, _, calls := repo.snapshot(); calls != 1 {
		t.Errorf("a deleted user must not be retried, got %d calls", calls)
	}
}

func TestReconciler_SameUserSameShard(t *testing.T) {
	r := NewReconciler(4, newFlakyUserRepo(0), zerolog.Nop())

	for _, userID := range []string{"u001", "u002", "a-much-longer-user-id"} {
		first := r.shardIndex(userID)
		if first < 0 || first >= 4 {
			t.Fatalf("shard index out of range: %d", first)
		}
		for i := 0; i < 10; i++ {
			if got := r.shardIndex(userID); got != first {
				t.Fatalf("shard index unstable for %q: %d vs %d", userID, got, first)
			}
		}
	}
}

func TestReconciler_TasksForOneUserApplyInOrder(t *testing.T) {
	repo := newFlakyUserRepo(0)
	r := NewReconciler(4, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	for i := 0; i < 5; i++ {
		r.Enqueue(ports.BackrefTask{
			ID:       fmt.Sprintf("t%d", i),
			Op:       ports.BackrefAttach,
			UserID:   "u001",
			PromptID: fmt.Sprintf("p%03d", i),
		})
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		appended, _, _ := repo.snapshot()
		return len(appended) == 5
	})
	if !ok {
		t.Fatal("not all repairs applied")
	}

	appended, _, _ := repo.snapshot()
	for i, pair := range appended {
		want := fmt.Sprintf("u001:p%03d", i)
		if pair != want {
			t.Errorf("repair %d out of order: got %s, want %s", i, pair, want)
		}
	}
}
