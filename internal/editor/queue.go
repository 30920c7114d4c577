package editor

import (
	"context"
	"sync"

	"coursebuilder/internal/logger"
)

// Policy is the failure handling a queued command declares up front.
type Policy int

const (
	// PolicyRetryPreserve keeps local state and retries with backoff (full-list saves).
	PolicyRetryPreserve Policy = iota
	// PolicyRollback reverts the optimistic local change (reorders).
	PolicyRollback
	// PolicyConfirmThenApply changes local state only after the remote confirms
	// (duplicates, outline blocks).
	PolicyConfirmThenApply
)

func (p Policy) String() string {
	switch p {
	case PolicyRetryPreserve:
		return "retry-preserve"
	case PolicyRollback:
		return "rollback"
	case PolicyConfirmThenApply:
		return "confirm-then-apply"
	default:
		return "unknown"
	}
}

type command struct {
	kind   string
	policy Policy

	exec      func(ctx context.Context) error
	onSuccess func()
	onFailure func(error)
}

// commandQueue runs one session's remote calls strictly one at a time, in FIFO order.
// The worker goroutine exists only while there is work.
type commandQueue struct {
	ctx context.Context
	log *logger.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	pending []*command
	running bool
	closed  bool
}

func newCommandQueue(ctx context.Context, log *logger.Logger) *commandQueue {
	q := &commandQueue{ctx: ctx, log: log}
	q.idle = sync.NewCond(&q.mu)
	return q
}

func (q *commandQueue) enqueue(c *command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.pending = append(q.pending, c)
	q.log.Debug("command queued", "kind", c.kind, "policy", c.policy.String(), "depth", len(q.pending))
	if !q.running {
		q.running = true
		go q.loop()
	}
	return true
}

func (q *commandQueue) loop() {
	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 {
			q.running = false
			q.pending = nil
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		c := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := c.exec(q.ctx)
		if err != nil {
			q.log.Debug("command failed", "kind", c.kind, "policy", c.policy.String(), "error", err)
			if c.onFailure != nil {
				c.onFailure(err)
			}
			continue
		}
		if c.onSuccess != nil {
			c.onSuccess()
		}
	}
}

// drop removes queued (not yet started) commands of the given kind and reports how many.
func (q *commandQueue) drop(kind string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.pending[:0]
	n := 0
	for _, c := range q.pending {
		if c.kind == kind {
			n++
			continue
		}
		kept = append(kept, c)
	}
	q.pending = kept
	return n
}

// wait blocks until the queue has drained. It must not be called from a command callback.
func (q *commandQueue) wait() {
	q.mu.Lock()
	for q.running {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// close discards pending commands. A command already executing runs to completion;
// its callbacks see a closed session and do nothing.
func (q *commandQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.idle.Broadcast()
	q.mu.Unlock()
}
