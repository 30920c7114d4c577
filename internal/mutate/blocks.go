package mutate

import (
	"bytes"
	"sort"
	"strings"

	"coursebuilder/internal/model"
)

// Command operations over a lesson's block sequence.
//
// Every function treats its input as immutable and returns a fresh slice whose
// Order fields equal the slice index. Persistence is layered on top by the
// editor and the server store; nothing here does I/O.

// Add appends b to seq.
func Add(seq []model.Block, b model.Block) ([]model.Block, error) {
	return Insert(seq, b, len(seq))
}

// Insert places b at index at (clamped to [0, len(seq)]).
func Insert(seq []model.Block, b model.Block, at int) ([]model.Block, error) {
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		return nil, violation("add", "missing block id")
	}
	if !b.Type.Valid() {
		return nil, violation("add", "unknown block type %q", b.Type)
	}
	if Index(seq, b.ID) >= 0 {
		return nil, violation("add", "duplicate block id %s", b.ID)
	}
	if at < 0 {
		at = 0
	}
	if at > len(seq) {
		at = len(seq)
	}
	b.Content = model.NormalizeContent(b.Content)

	out := make([]model.Block, 0, len(seq)+1)
	out = append(out, cloneBlocks(seq[:at])...)
	out = append(out, b)
	out = append(out, cloneBlocks(seq[at:])...)
	return Renumber(out), nil
}

// Duplicate copies sourceID under newID and places the copy right after its source.
func Duplicate(seq []model.Block, sourceID, newID string) ([]model.Block, error) {
	sourceID = strings.TrimSpace(sourceID)
	idx := Index(seq, sourceID)
	if idx < 0 {
		return nil, NotFoundError{Kind: "block", ID: sourceID}
	}
	cp := cloneBlock(seq[idx])
	cp.ID = strings.TrimSpace(newID)
	return Insert(seq, cp, idx+1)
}

// InsertAfter places b directly after anchorID, or appends when the anchor is gone.
// It merges a block the remote store already created (e.g. a server-side duplicate).
func InsertAfter(seq []model.Block, anchorID string, b model.Block) ([]model.Block, error) {
	idx := Index(seq, anchorID)
	if idx < 0 {
		return Insert(seq, b, len(seq))
	}
	return Insert(seq, b, idx+1)
}

// Delete removes every block whose id is in ids. It fails only when none match.
func Delete(seq []model.Block, ids []string) ([]model.Block, error) {
	want := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			want[id] = true
		}
	}
	if len(want) == 0 {
		return nil, NotFoundError{Kind: "block", ID: ""}
	}

	out := make([]model.Block, 0, len(seq))
	removed := 0
	for _, b := range seq {
		if want[b.ID] {
			removed++
			continue
		}
		out = append(out, cloneBlock(b))
	}
	if removed == 0 {
		return nil, NotFoundError{Kind: "block", ID: strings.Join(sortedKeys(want), ",")}
	}
	return Renumber(out), nil
}

// Reorder returns seq arranged by orderedIDs, which must be a permutation of seq's ids.
func Reorder(seq []model.Block, orderedIDs []string) ([]model.Block, error) {
	if len(orderedIDs) != len(seq) {
		return nil, violation("reorder", "expected %d ids, got %d", len(seq), len(orderedIDs))
	}
	byID := make(map[string]model.Block, len(seq))
	for _, b := range seq {
		byID[b.ID] = b
	}
	seen := make(map[string]bool, len(orderedIDs))
	out := make([]model.Block, 0, len(seq))
	for _, id := range orderedIDs {
		id = strings.TrimSpace(id)
		b, ok := byID[id]
		if !ok {
			return nil, violation("reorder", "unknown block id %q", id)
		}
		if seen[id] {
			return nil, violation("reorder", "block id %s listed twice", id)
		}
		seen[id] = true
		out = append(out, cloneBlock(b))
	}
	return Renumber(out), nil
}

// RestoreOrder puts the blocks named by orderedIDs back in that relative order.
// Blocks not named keep their current relative order and follow the restored ones;
// names that no longer exist are skipped. It is the inverse of a Reorder that may
// have been followed by unrelated edits.
func RestoreOrder(seq []model.Block, orderedIDs []string) []model.Block {
	byID := make(map[string]model.Block, len(seq))
	for _, b := range seq {
		byID[b.ID] = b
	}
	placed := map[string]bool{}
	out := make([]model.Block, 0, len(seq))
	for _, id := range orderedIDs {
		b, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, cloneBlock(b))
	}
	for _, b := range seq {
		if placed[b.ID] {
			continue
		}
		out = append(out, cloneBlock(b))
	}
	return Renumber(out)
}

// Update replaces the content of block id.
func Update(seq []model.Block, id string, content []byte) ([]model.Block, error) {
	id = strings.TrimSpace(id)
	idx := Index(seq, id)
	if idx < 0 {
		return nil, NotFoundError{Kind: "block", ID: id}
	}
	out := Clone(seq)
	out[idx].Content = model.NormalizeContent(content)
	return out, nil
}

// Renumber rewrites Order to match slice position. It mutates and returns seq.
func Renumber(seq []model.Block) []model.Block {
	for i := range seq {
		seq[i].Order = i
	}
	return seq
}

// CheckOrder verifies the contiguity invariant: orders are exactly 0..N-1 by position
// and ids are unique.
func CheckOrder(seq []model.Block) error {
	seen := make(map[string]bool, len(seq))
	for i, b := range seq {
		if b.Order != i {
			return violation("order", "block %s at position %d has order %d", b.ID, i, b.Order)
		}
		if seen[b.ID] {
			return violation("order", "duplicate block id %s", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// Index returns the position of id in seq, or -1.
func Index(seq []model.Block, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i := range seq {
		if seq[i].ID == id {
			return i
		}
	}
	return -1
}

func IDs(seq []model.Block) []string {
	out := make([]string, 0, len(seq))
	for _, b := range seq {
		out = append(out, b.ID)
	}
	return out
}

// SameIDSet reports whether ids names exactly the blocks of seq (in any order).
func SameIDSet(seq []model.Block, ids []string) bool {
	if len(seq) != len(ids) {
		return false
	}
	want := make(map[string]bool, len(seq))
	for _, b := range seq {
		want[b.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}

// Equal compares two sequences field by field; content is compared byte-wise.
func Equal(a, b []model.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Type != b[i].Type || a[i].Order != b[i].Order {
			return false
		}
		if !bytes.Equal(a[i].Content, b[i].Content) {
			return false
		}
	}
	return true
}

// Clone deep-copies seq (content bytes included).
func Clone(seq []model.Block) []model.Block {
	if seq == nil {
		return nil
	}
	return cloneBlocks(seq)
}

func cloneBlocks(seq []model.Block) []model.Block {
	out := make([]model.Block, len(seq))
	for i := range seq {
		out[i] = cloneBlock(seq[i])
	}
	return out
}

func cloneBlock(b model.Block) model.Block {
	if b.Content != nil {
		b.Content = append([]byte(nil), b.Content...)
	}
	return b
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
