package mutate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"coursebuilder/internal/model"

	"github.com/google/go-cmp/cmp"
)

func seq(ids ...string) []model.Block {
	out := make([]model.Block, 0, len(ids))
	for i, id := range ids {
		out = append(out, model.Block{
			ID:      id,
			Type:    model.BlockText,
			Order:   i,
			Content: json.RawMessage(fmt.Sprintf(`{"text":%q}`, "body "+id)),
		})
	}
	return out
}

func orders(s []model.Block) []int {
	out := make([]int, 0, len(s))
	for _, b := range s {
		out = append(out, b.Order)
	}
	return out
}

func TestAddAndInsert(t *testing.T) {
	base := seq("a", "b")

	got, err := Add(base, model.Block{ID: "c", Type: model.BlockHeading})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, IDs(got)); diff != "" {
		t.Fatalf("Add ids (-want +got):\n%s", diff)
	}
	if string(got[2].Content) != `{}` {
		t.Fatalf("expected empty content normalized to {}, got %s", got[2].Content)
	}

	got, err = Insert(base, model.Block{ID: "z", Type: model.BlockText}, 0)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if diff := cmp.Diff([]string{"z", "a", "b"}, IDs(got)); diff != "" {
		t.Fatalf("Insert ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, orders(got)); diff != "" {
		t.Fatalf("Insert orders (-want +got):\n%s", diff)
	}

	// Input untouched.
	if diff := cmp.Diff([]int{0, 1}, orders(base)); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}

	if _, err := Add(base, model.Block{ID: "a", Type: model.BlockText}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	var iv InvariantViolationError
	if _, err := Add(base, model.Block{ID: "q", Type: "poem"}); !errors.As(err, &iv) {
		t.Fatalf("expected InvariantViolationError for unknown type, got %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	base := seq("a", "b", "c")

	got, err := Duplicate(base, "b", "b2")
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "b2", "c"}, IDs(got)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, orders(got)); diff != "" {
		t.Fatalf("orders (-want +got):\n%s", diff)
	}
	if string(got[2].Content) != string(got[1].Content) {
		t.Fatalf("expected identical content, got %s vs %s", got[2].Content, got[1].Content)
	}

	var nf NotFoundError
	if _, err := Duplicate(base, "missing", "x"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestInsertAfterFallsBackToAppend(t *testing.T) {
	got, err := InsertAfter(seq("a", "b"), "gone", model.Block{ID: "n", Type: model.BlockText})
	if err != nil {
		t.Fatalf("InsertAfter: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "n"}, IDs(got)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
}

func TestDelete_BulkPrecision(t *testing.T) {
	base := seq("A", "B", "C", "D")

	got, err := Delete(base, []string{"B", "D"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []model.Block{base[0], base[2]}
	want[0].Order, want[1].Order = 0, 1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Delete (-want +got):\n%s", diff)
	}
}

func TestDelete_PartialAndMissing(t *testing.T) {
	base := seq("a", "b")

	got, err := Delete(base, []string{"b", "nope"})
	if err != nil {
		t.Fatalf("partial delete should succeed: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, IDs(got)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}

	var nf NotFoundError
	if _, err := Delete(base, []string{"x", "y"}); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "x,y" {
		t.Fatalf("expected sorted ids in error, got %q", nf.ID)
	}
}

func TestReorder(t *testing.T) {
	base := seq("A", "B", "C")

	got, err := Reorder(base, []string{"C", "A", "B"})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, IDs(got)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	if err := CheckOrder(got); err != nil {
		t.Fatalf("CheckOrder: %v", err)
	}

	bad := [][]string{
		{"A", "B"},
		{"A", "B", "B"},
		{"A", "B", "X"},
	}
	for _, ids := range bad {
		var iv InvariantViolationError
		if _, err := Reorder(base, ids); !errors.As(err, &iv) {
			t.Fatalf("Reorder(%v): expected InvariantViolationError, got %v", ids, err)
		}
	}
}

func TestRestoreOrder(t *testing.T) {
	reordered, _ := Reorder(seq("A", "B", "C"), []string{"C", "A", "B"})
	// A block added after the reorder trails the restored ones.
	withNew, _ := Add(reordered, model.Block{ID: "N", Type: model.BlockText})

	got := RestoreOrder(withNew, []string{"A", "B", "C"})
	if diff := cmp.Diff([]string{"A", "B", "C", "N"}, IDs(got)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	if err := CheckOrder(got); err != nil {
		t.Fatalf("CheckOrder: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	base := seq("a")
	got, err := Update(base, "a", []byte(`{ "text": "hi" }`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if string(got[0].Content) != `{"text":"hi"}` {
		t.Fatalf("expected compacted content, got %s", got[0].Content)
	}
	if Equal(base, got) {
		t.Fatalf("expected sequences to differ after update")
	}
	if _, err := Update(base, "b", nil); err == nil {
		t.Fatalf("expected NotFoundError")
	}
}

// Any interleaving of command operations keeps orders contiguous.
func TestOrderContiguity_RandomOperations(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cur := seq("s0", "s1", "s2")
	next := 0

	for step := 0; step < 500; step++ {
		var err error
		var out []model.Block
		switch r.Intn(4) {
		case 0:
			next++
			out, err = Insert(cur, model.Block{ID: fmt.Sprintf("n%d", next), Type: model.BlockText}, r.Intn(len(cur)+1))
		case 1:
			if len(cur) == 0 {
				continue
			}
			next++
			out, err = Duplicate(cur, cur[r.Intn(len(cur))].ID, fmt.Sprintf("d%d", next))
		case 2:
			if len(cur) < 2 {
				continue
			}
			out, err = Delete(cur, []string{cur[r.Intn(len(cur))].ID, cur[r.Intn(len(cur))].ID})
		case 3:
			ids := IDs(cur)
			r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			out, err = Reorder(cur, ids)
		}
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if err := CheckOrder(out); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		cur = out
	}
}
