package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/modd3/ai-prompt-builder/internal/api/metrics"
	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	taskAttempts  = 5
	taskBaseDelay = 200 * time.Millisecond
)

// Reconciler repairs User.prompts back-references whose secondary write
// failed after the prompt write already succeeded. Tasks are routed to a
// fixed set of workers by consistent hashing on the user id, so repairs for
// one user apply in the order they were produced.
type Reconciler struct {
	workers []chan ports.BackrefTask
	users   ports.UserRepository
	log     zerolog.Logger
}

// NewReconciler creates a Reconciler with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewReconciler(numWorkers int, users ports.UserRepository, log zerolog.Logger) *Reconciler {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &Reconciler{
		workers: make([]chan ports.BackrefTask, numWorkers),
		users:   users,
		log:     log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan ports.BackrefTask, channelBuffer)
	}
	return r
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a repair task to the worker responsible for its user.
// Non-blocking up to channelBuffer capacity.
func (r *Reconciler) Enqueue(task ports.BackrefTask) {
	idx := r.shardIndex(task.UserID)
	r.workers[idx] <- task
	metrics.ReconcileQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(r.workers[idx])))
}

// shardIndex maps a user id deterministically to a worker index.
func (r *Reconciler) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(r.workers)
}

func (r *Reconciler) runWorker(ctx context.Context, id int, ch <-chan ports.BackrefTask) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-ch:
			if !ok {
				return
			}
			metrics.ReconcileQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := r.process(ctx, task); err != nil {
				metrics.ReconcileTasksTotal.WithLabelValues(string(task.Op), "failed").Inc()
				r.log.Error().Err(err).
					Str("task_id", task.ID).
					Str("op", string(task.Op)).
					Str("user_id", task.UserID).
					Str("prompt_id", task.PromptID).
					Int("worker_id", id).
					Msg("back-reference reconciliation failed")
				continue
			}
			metrics.ReconcileTasksTotal.WithLabelValues(string(task.Op), "applied").Inc()
			r.log.Info().
				Str("task_id", task.ID).
				Str("op", string(task.Op)).
				Str("user_id", task.UserID).
				Str("prompt_id", task.PromptID).
				Msg("back-reference reconciled")
		}
	}
}

// process retries the repair with backoff. Both repair writes are idempotent,
// so a retry after a half-applied attempt is safe.
func (r *Reconciler) process(ctx context.Context, task ports.BackrefTask) error {
	op := func() error {
		switch task.Op {
		case ports.BackrefAttach:
			return r.users.AppendPromptID(ctx, task.UserID, task.PromptID)
		case ports.BackrefDetach:
			return r.users.RemovePromptID(ctx, task.UserID, task.PromptID)
		default:
			return retry.Unrecoverable(fmt.Errorf("unknown op %q", task.Op))
		}
	}

	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(taskAttempts),
		retry.Delay(taskBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// The user being gone is final; connectivity failures are not.
			if errors.Is(err, domain.ErrUserNotFound) {
				return false
			}
			return retry.IsRecoverable(err)
		}),
	)
}
