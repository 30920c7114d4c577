package editor

import (
	"context"

	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// Autosave: Idle -> Dirty -> (debounce) -> Saving -> Saved | Retrying | Failed.
// A failed save never touches the local block list.

// Save flushes pending edits now: the debounce timer is skipped and the retry
// counter starts over. It returns immediately; use Wait to block on the result.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	s.retryAttempt = 0
	s.requestSaveLocked()
	return nil
}

// markDirtyLocked (re)starts the debounce window after a local edit. A new
// edit also starts the retry budget over.
func (s *Session) markDirtyLocked() {
	s.retryAttempt = 0
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceGen++
	gen := s.debounceGen
	s.debounceTimer = s.clock.AfterFunc(s.cfg.Debounce, func() { s.onDebounce(gen) })
}

func (s *Session) onDebounce(gen int) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed || gen != s.debounceGen {
		return
	}
	s.debounceTimer = nil
	s.requestSaveLocked()
}

func (s *Session) onRetry(gen int) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed || gen != s.retryGen {
		return
	}
	s.retryTimer = nil
	s.requestSaveLocked()
}

// requestSaveLocked queues a full-list save unless one is already queued (a queued
// save snapshots the list when it starts, so it will carry these edits too).
func (s *Session) requestSaveLocked() {
	if s.closed {
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
		s.debounceGen++
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
		s.retryGen++
	}
	if s.saveQueued {
		return
	}
	if s.saveInFlight {
		if mutate.Equal(s.blocks, s.inflight) {
			return
		}
	} else if !s.dirtyLocked() {
		return
	}

	s.saveQueued = true
	var snapshot []model.Block
	s.queue.enqueue(&command{
		kind:   "save",
		policy: PolicyRetryPreserve,
		exec: func(ctx context.Context) error {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return ErrClosed
			}
			s.saveQueued = false
			s.saveInFlight = true
			snapshot = mutate.Clone(s.blocks)
			s.inflight = snapshot
			s.mu.Unlock()

			cctx, cancel := s.callCtx(ctx)
			defer cancel()
			_, err := s.remote.SaveBlocks(cctx, s.ref, snapshot)
			return err
		},
		onSuccess: func() { s.saveSucceeded(snapshot) },
		onFailure: func(err error) { s.saveFailed(err) },
	})
}

func (s *Session) saveSucceeded(snapshot []model.Block) {
	s.mu.Lock()
	defer s.unlock()
	s.saveInFlight = false
	s.inflight = nil
	if s.closed {
		return
	}
	s.acked = snapshot
	s.retryAttempt = 0
	s.lastErr = nil
	s.log.Debug("blocks saved", "count", len(snapshot))
	s.noticeLocked(NoticeSuccess, "Changes saved")
}

func (s *Session) saveFailed(err error) {
	s.mu.Lock()
	defer s.unlock()
	s.saveInFlight = false
	s.inflight = nil
	if s.closed {
		return
	}
	if s.saveQueued {
		// The queued save carries newer state and counts as the next attempt.
		s.log.Warn("save failed with newer save queued", "error", err)
		return
	}

	if isTransient(err) && s.retryAttempt < s.cfg.MaxRetries {
		delay := retryDelay(s.cfg.RetryBase, s.retryAttempt)
		s.retryAttempt++
		s.lastErr = &PersistenceError{Op: "save", Attempts: s.retryAttempt, Err: err}
		s.retryGen++
		gen := s.retryGen
		s.retryTimer = s.clock.AfterFunc(delay, func() { s.onRetry(gen) })
		s.log.Warn("save failed, retrying", "attempt", s.retryAttempt, "delay", delay.String(), "error", err)
		s.noticeLocked(NoticeInfo, "Save failed, retrying in %s (%d/%d)", delay, s.retryAttempt, s.cfg.MaxRetries)
		return
	}

	attempts := s.retryAttempt + 1
	s.retryAttempt = 0
	s.lastErr = &PersistenceError{Op: "save", Attempts: attempts, Permanent: true, Err: err}
	s.log.Error("save failed permanently", "attempts", attempts, "error", err)
	s.noticeLocked(NoticeError, "Could not save changes after %d attempt(s); your edits are kept locally", attempts)
}
