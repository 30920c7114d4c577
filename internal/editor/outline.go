package editor

import (
	"context"
	"errors"
	"fmt"

	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// OutlineError reports a batch that stopped part way. Blocks created before
// the failure stay in the lesson.
type OutlineError struct {
	Added int
	Total int
	Err   error
}

func (e *OutlineError) Error() string {
	return fmt.Sprintf("outline stopped after %d of %d block(s): %v", e.Added, e.Total, e.Err)
}

func (e *OutlineError) Unwrap() error { return e.Err }

// AcceptOutline creates each skeleton on the remote store, one at a time and in
// order. Every confirmed block is appended to the lesson as already saved. The
// first failure ends the batch.
func (s *Session) AcceptOutline(skeletons []model.BlockSkeleton) error {
	for i, sk := range skeletons {
		if !sk.Type.Valid() {
			return mutate.InvariantViolationError{
				Op:     "outline",
				Reason: fmt.Sprintf("skeleton %d has unknown block type %q", i, sk.Type),
			}
		}
	}
	if len(skeletons) == 0 {
		return nil
	}
	batch := make([]model.BlockSkeleton, len(skeletons))
	for i, sk := range skeletons {
		batch[i] = model.BlockSkeleton{Type: sk.Type, Content: model.NormalizeContent(sk.Content)}
	}

	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}

	added := 0
	s.queue.enqueue(&command{
		kind:   "outline",
		policy: PolicyConfirmThenApply,
		exec: func(ctx context.Context) error {
			for _, sk := range batch {
				if s.isClosed() {
					return ErrClosed
				}
				cctx, cancel := s.callCtx(ctx)
				b, err := s.remote.CreateBlock(cctx, s.ref, sk)
				cancel()
				if err != nil {
					return &OutlineError{Added: added, Total: len(batch), Err: err}
				}
				if !s.appendConfirmed(b) {
					return ErrClosed
				}
				added++
			}
			return nil
		},
		onSuccess: func() {
			s.mu.Lock()
			defer s.unlock()
			if s.closed {
				return
			}
			s.noticeLocked(NoticeSuccess, "Added %d block(s) from outline", added)
		},
		onFailure: func(err error) {
			s.mu.Lock()
			defer s.unlock()
			if s.closed {
				return
			}
			s.lastErr = &PersistenceError{Op: "outline", Attempts: 1, Permanent: true, Err: err}
			s.log.Warn("outline acceptance stopped", "added", added, "total", len(batch), "error", err)
			cause := err
			var oe *OutlineError
			if errors.As(err, &oe) {
				cause = oe.Err
			}
			s.noticeLocked(NoticeError, "Added %d of %d outline block(s); the rest failed: %v", added, len(batch), cause)
		},
	})
	return nil
}

// appendConfirmed adds a block the store already holds to both the live list and
// the acknowledged snapshot, so the append alone never makes the session dirty.
func (s *Session) appendConfirmed(b model.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	next, err := mutate.Add(s.blocks, b)
	if err != nil {
		s.log.Error("append outline block", "blockId", b.ID, "error", err)
		return true
	}
	s.blocks = next
	if acked, err := mutate.Add(s.acked, b); err == nil {
		s.acked = acked
	}
	return true
}
