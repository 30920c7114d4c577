package editor

import (
	"encoding/json"

	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// inverse takes back one command against whatever the list looks like now.
// Blocks the command did not touch are left alone.
type inverse func(cur []model.Block) []model.Block

type historyEntry struct {
	id   int
	op   string
	undo inverse
}

// history is a bounded stack of inverses; the oldest entry falls off first.
type history struct {
	limit   int
	nextID  int
	entries []historyEntry
}

func (h *history) push(op string, undo inverse) int {
	h.nextID++
	h.entries = append(h.entries, historyEntry{id: h.nextID, op: op, undo: undo})
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = append(h.entries[:0], h.entries[len(h.entries)-h.limit:]...)
	}
	return h.nextID
}

func (h *history) pop() (historyEntry, bool) {
	if len(h.entries) == 0 {
		return historyEntry{}, false
	}
	e := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return e, true
}

// discard removes entries of op recorded at or after fromID.
func (h *history) discard(op string, fromID int) {
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.op == op && e.id >= fromID {
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
}

func (h *history) len() int { return len(h.entries) }

// removeBlock undoes an add or a duplicate.
func removeBlock(id string) inverse {
	return func(cur []model.Block) []model.Block {
		if mutate.Index(cur, id) < 0 {
			return cur
		}
		next, err := mutate.Delete(cur, []string{id})
		if err != nil {
			return cur
		}
		return next
	}
}

// restoreContent undoes an update of one block.
func restoreContent(id string, old json.RawMessage) inverse {
	old = append(json.RawMessage(nil), old...)
	return func(cur []model.Block) []model.Block {
		if mutate.Index(cur, id) < 0 {
			return cur
		}
		next, err := mutate.Update(cur, id, old)
		if err != nil {
			return cur
		}
		return next
	}
}

// reinsert undoes a delete. removed carries each block with Order set to the
// index it had; blocks go back there (clamped), lowest index first.
func reinsert(removed []model.Block) inverse {
	removed = mutate.Clone(removed)
	return func(cur []model.Block) []model.Block {
		out := cur
		for _, b := range removed {
			if mutate.Index(out, b.ID) >= 0 {
				continue
			}
			next, err := mutate.Insert(out, b, b.Order)
			if err != nil {
				continue
			}
			out = next
		}
		return out
	}
}

// restoreOrder undoes a reorder.
func restoreOrder(prev []string) inverse {
	prev = append([]string(nil), prev...)
	return func(cur []model.Block) []model.Block {
		return mutate.RestoreOrder(cur, prev)
	}
}

// removedBlocks returns the blocks of before that after no longer holds, in
// position order with Order equal to their index in before.
func removedBlocks(before, after []model.Block) []model.Block {
	var out []model.Block
	for i, b := range before {
		if mutate.Index(after, b.ID) >= 0 {
			continue
		}
		b.Order = i
		out = append(out, b)
	}
	return mutate.Clone(out)
}
