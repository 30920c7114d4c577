package editor

import (
	"context"

	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// Reorder applies orderedIDs locally and persists the id list on its own endpoint.
// On failure the previous order is restored; on success the autosave pipeline is
// not involved.
func (s *Session) Reorder(orderedIDs []string) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	next, err := mutate.Reorder(s.blocks, orderedIDs)
	if err != nil {
		return err
	}
	if mutate.Equal(next, s.blocks) {
		return nil
	}
	prev := mutate.IDs(s.blocks)
	applied := mutate.IDs(next)
	entry := s.history.push("reorder", restoreOrder(prev))
	s.blocks = next

	// The store only accepts permutations of what it holds; push
	// structural edits it has not seen yet ahead of the reorder.
	if !mutate.SameIDSet(s.acked, applied) {
		s.requestSaveLocked()
	}

	s.queue.enqueue(&command{
		kind:   "reorder",
		policy: PolicyRollback,
		exec: func(ctx context.Context) error {
			if s.isClosed() {
				return ErrClosed
			}
			cctx, cancel := s.callCtx(ctx)
			defer cancel()
			_, err := s.remote.ReorderBlocks(cctx, s.ref, applied)
			return err
		},
		onSuccess: func() { s.reorderSucceeded(applied) },
		onFailure: func(err error) { s.reorderFailed(prev, entry, err) },
	})
	return nil
}

// Move shifts block id by delta positions (clamped) through Reorder.
func (s *Session) Move(id string, delta int) error {
	s.mu.Lock()
	ids := mutate.IDs(s.blocks)
	s.mu.Unlock()

	from := -1
	for i, v := range ids {
		if v == id {
			from = i
			break
		}
	}
	if from < 0 {
		return mutate.NotFoundError{Kind: "block", ID: id}
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(ids)-1 {
		to = len(ids) - 1
	}
	if to == from {
		return nil
	}
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{id}, ids[to:]...)...)
	return s.Reorder(ids)
}

func (s *Session) reorderSucceeded(applied []string) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	s.acked = mutate.RestoreOrder(s.acked, applied)
	s.log.Debug("blocks reordered", "count", len(applied))
}

func (s *Session) reorderFailed(prev []string, entry int, err error) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	// Reorders queued behind this one were built on the order being reverted.
	dropped := s.queue.drop("reorder")
	s.blocks = mutate.RestoreOrder(s.blocks, prev)
	s.history.discard("reorder", entry)
	s.lastErr = &PersistenceError{Op: "reorder", Attempts: 1, Permanent: true, Err: err}
	s.log.Warn("reorder failed, reverted", "dropped", dropped, "error", err)
	s.noticeLocked(NoticeError, "Could not save the new block order; changes were reverted")
	// A save flushed ahead of the reorder already stored the new order; put the
	// reverted order back on the store too.
	if s.dirtyLocked() {
		s.requestSaveLocked()
	}
}

// Duplicate asks the remote store to copy sourceID and merges the server-issued
// block right after its source once confirmed. Nothing changes locally on failure.
func (s *Session) Duplicate(sourceID string) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	if mutate.Index(s.blocks, sourceID) < 0 {
		return mutate.NotFoundError{Kind: "block", ID: sourceID}
	}
	if mutate.Index(s.acked, sourceID) < 0 {
		s.requestSaveLocked()
	}

	var created model.Block
	s.queue.enqueue(&command{
		kind:   "duplicate",
		policy: PolicyConfirmThenApply,
		exec: func(ctx context.Context) error {
			if s.isClosed() {
				return ErrClosed
			}
			cctx, cancel := s.callCtx(ctx)
			defer cancel()
			b, err := s.remote.DuplicateBlock(cctx, s.ref, sourceID)
			if err != nil {
				return err
			}
			created = b
			return nil
		},
		onSuccess: func() { s.duplicateSucceeded(sourceID, created) },
		onFailure: func(err error) { s.duplicateFailed(err) },
	})
	return nil
}

func (s *Session) duplicateSucceeded(sourceID string, b model.Block) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	next, err := mutate.InsertAfter(s.blocks, sourceID, b)
	if err != nil {
		s.log.Error("merge duplicated block", "blockId", b.ID, "error", err)
		s.noticeLocked(NoticeError, "Duplicated block could not be merged: %v", err)
		return
	}
	if acked, err := mutate.InsertAfter(s.acked, sourceID, b); err == nil {
		s.acked = acked
	}
	s.history.push("duplicate", removeBlock(b.ID))
	s.blocks = next
	s.selection.Select(b.ID)
	s.noticeLocked(NoticeSuccess, "Block duplicated")
}

func (s *Session) duplicateFailed(err error) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	s.lastErr = &PersistenceError{Op: "duplicate", Attempts: 1, Permanent: true, Err: err}
	s.log.Warn("duplicate failed", "error", err)
	s.noticeLocked(NoticeError, "Could not duplicate block: %v", err)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
