package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingHandler struct {
	got []Intent
}

func (h *recordingHandler) OnDuplicateIntent() { h.got = append(h.got, IntentDuplicate) }
func (h *recordingHandler) OnDeleteIntent()    { h.got = append(h.got, IntentDelete) }
func (h *recordingHandler) OnUndoIntent()      { h.got = append(h.got, IntentUndo) }

func TestDispatcher(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(DefaultKeymap(), h)

	if in := d.Dispatch("ctrl+d"); in != IntentNone {
		t.Fatalf("expected nothing before Mount, got %v", in)
	}

	d.Mount()
	for _, chord := range []string{"ctrl+d", "delete", "backspace", "ctrl+z", "x", "Ctrl+D"} {
		d.Dispatch(chord)
	}
	want := []Intent{IntentDuplicate, IntentDelete, IntentDelete, IntentUndo, IntentDuplicate}
	if diff := cmp.Diff(want, h.got); diff != "" {
		t.Fatalf("intents (-want +got):\n%s", diff)
	}

	h.got = nil
	d.SetFocus(FocusTextInput)
	d.Dispatch("backspace")
	d.Dispatch("ctrl+z")
	if len(h.got) != 0 {
		t.Fatalf("expected suppression while typing, got %v", h.got)
	}

	d.SetFocus(FocusSurface)
	d.Unmount()
	d.Dispatch("delete")
	if len(h.got) != 0 {
		t.Fatalf("expected nothing after Unmount, got %v", h.got)
	}
}

func TestDispatcher_CustomKeymap(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(Keymap{Duplicate: []string{"alt+d"}}, h)
	d.Mount()

	d.Dispatch("ctrl+d")
	d.Dispatch("alt+d")
	d.Dispatch("delete")
	want := []Intent{IntentDuplicate, IntentDelete}
	if diff := cmp.Diff(want, h.got); diff != "" {
		t.Fatalf("intents (-want +got):\n%s", diff)
	}
}

func TestSelection(t *testing.T) {
	tests := []struct {
		name  string
		apply func(s *Selection)
		mode  SelectionMode
		ids   []string
	}{
		{"empty", func(s *Selection) {}, SelectNone, nil},
		{"plain select", func(s *Selection) { s.Select("a") }, SelectSingle, []string{"a"}},
		{"toggle clears single", func(s *Selection) { s.Select("a"); s.Toggle("b") }, SelectMulti, []string{"b"}},
		{"toggle twice removes", func(s *Selection) { s.Toggle("b"); s.Toggle("c"); s.Toggle("b") }, SelectMulti, []string{"c"}},
		{"select clears multi", func(s *Selection) { s.Toggle("b"); s.Toggle("c"); s.Select("d") }, SelectSingle, []string{"d"}},
		{"clear", func(s *Selection) { s.Toggle("b"); s.Clear() }, SelectNone, nil},
		{"select empty clears", func(s *Selection) { s.Select("a"); s.Select("") }, SelectNone, nil},
		{"retain", func(s *Selection) {
			s.Toggle("a")
			s.Toggle("b")
			s.Retain(func(id string) bool { return id != "a" })
		}, SelectMulti, []string{"b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s Selection
			tc.apply(&s)
			st := s.State()
			if st.Mode != tc.mode {
				t.Fatalf("mode: got %v want %v", st.Mode, tc.mode)
			}
			if diff := cmp.Diff(tc.ids, st.IDs); diff != "" {
				t.Fatalf("ids (-want +got):\n%s", diff)
			}
		})
	}
}
