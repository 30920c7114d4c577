package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"

	"github.com/google/go-cmp/cmp"
)

func testCourse() *model.Course {
	return &model.Course{
		ID:    "crs-1",
		Title: "Go basics",
		Modules: []model.Module{{
			ID:       "mod-1",
			CourseID: "crs-1",
			Title:    "Intro",
			Lessons: []model.Lesson{
				{ID: "les-1", ModuleID: "mod-1", Title: "Hello", Blocks: blocks("A", "B", "C")},
				{ID: "les-2", ModuleID: "mod-1", Title: "Types", Order: 1, Blocks: blocks("X")},
			},
		}},
	}
}

func newTestEditor(t *testing.T) (*Editor, *fakeRemote, *fakeClock, *noticeLog) {
	t.Helper()
	r := newFakeRemote(blocks("A", "B", "C"))
	r.course = testCourse()
	clock := &fakeClock{}
	notices := &noticeLog{}
	e := New(r, Options{Clock: clock, Notifier: notices})
	if err := e.OpenCourse(context.Background(), "crs-1"); err != nil {
		t.Fatalf("OpenCourse: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(AlwaysConfirm) })
	return e, r, clock, notices
}

func TestEditor_OpenLesson(t *testing.T) {
	e, _, _, _ := newTestEditor(t)

	s, err := e.OpenLesson("les-1", nil)
	if err != nil {
		t.Fatalf("OpenLesson: %v", err)
	}
	if got := s.Ref(); got != testRef {
		t.Fatalf("unexpected ref %+v", got)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, mutate.IDs(s.Blocks())); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}

	var nf mutate.NotFoundError
	if _, err := e.OpenLesson("les-404", nil); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if e.Session() != s {
		t.Fatalf("failed open must keep the current session")
	}
}

func TestEditor_GuardBlocksDirtySwitch(t *testing.T) {
	e, _, _, _ := newTestEditor(t)
	s, _ := e.OpenLesson("les-1", nil)
	if err := s.Select("B"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Update("B", model.WithText(nil, "unsaved")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	asked := ""
	_, err := e.OpenLesson("les-2", func(prompt string) bool {
		asked = prompt
		return false
	})
	if !errors.Is(err, ErrNavigationCancelled) {
		t.Fatalf("expected ErrNavigationCancelled, got %v", err)
	}
	if asked == "" {
		t.Fatalf("expected confirm to be asked")
	}
	if e.Session() != s || !s.Dirty() {
		t.Fatalf("declined navigation must leave state untouched")
	}
	if err := e.Close(nil); !errors.Is(err, ErrNavigationCancelled) {
		t.Fatalf("expected close to be guarded, got %v", err)
	}

	next, err := e.OpenLesson("les-2", AlwaysConfirm)
	if err != nil {
		t.Fatalf("OpenLesson: %v", err)
	}
	if next.Selection().Mode != SelectNone {
		t.Fatalf("expected fresh selection on lesson switch")
	}

	// The cached tree keeps only what the store acknowledged.
	lesson, _, _ := e.Course().FindLesson("les-1")
	if diff := cmp.Diff(blocks("A", "B", "C"), lesson.Blocks); diff != "" {
		t.Fatalf("cached lesson (-want +got):\n%s", diff)
	}
}

func TestEditor_ConfirmMayReadEditorState(t *testing.T) {
	e, _, _, _ := newTestEditor(t)
	s, _ := e.OpenLesson("les-1", nil)
	if err := s.Update("A", model.WithText(nil, "unsaved")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	sawDirty := false
	confirm := func(string) bool {
		sawDirty = e.Dirty() && e.Course() != nil
		return true
	}
	done := make(chan error, 1)
	go func() {
		_, err := e.OpenLesson("les-2", confirm)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("OpenLesson: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("OpenLesson did not return; confirm ran under the editor lock")
	}
	if !sawDirty {
		t.Fatalf("expected confirm to observe the dirty editor")
	}
	if got := e.Session().Ref().LessonID; got != "les-2" {
		t.Fatalf("expected les-2 open, got %s", got)
	}
}

func TestEditor_CleanSwitchNeedsNoConfirm(t *testing.T) {
	e, _, clock, _ := newTestEditor(t)
	s, _ := e.OpenLesson("les-1", nil)
	if err := s.Update("A", model.WithText(nil, "saved")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	clock.Advance(2 * time.Second)
	s.Wait()

	if _, err := e.OpenLesson("les-2", nil); err != nil {
		t.Fatalf("OpenLesson: %v", err)
	}
	lesson, _, _ := e.Course().FindLesson("les-1")
	if got := lesson.Blocks[0].Text(); got != "saved" {
		t.Fatalf("expected acknowledged edit written back, got %q", got)
	}
}

func TestEditor_SwitchMidSaveDiscardsResult(t *testing.T) {
	e, r, clock, _ := newTestEditor(t)
	r.gate = make(chan struct{})
	r.started = make(chan struct{}, 4)

	old, _ := e.OpenLesson("les-1", nil)
	if err := old.Update("A", model.WithText(nil, "in flight")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	clock.Advance(2 * time.Second)
	<-r.started

	next, err := e.OpenLesson("les-2", AlwaysConfirm)
	if err != nil {
		t.Fatalf("OpenLesson: %v", err)
	}
	close(r.gate)
	old.Wait()

	if diff := cmp.Diff([]string{"X"}, mutate.IDs(next.Blocks())); diff != "" {
		t.Fatalf("new lesson touched by stale response (-want +got):\n%s", diff)
	}
	if next.Dirty() {
		t.Fatalf("new lesson must start clean")
	}
}

func TestEditor_Reload(t *testing.T) {
	e, r, _, _ := newTestEditor(t)
	if _, err := e.OpenLesson("les-1", nil); err != nil {
		t.Fatalf("OpenLesson: %v", err)
	}

	r.mu.Lock()
	r.course.Modules[0].Lessons[0].Blocks = blocks("A", "B", "C", "D")
	r.mu.Unlock()

	if err := e.Reload(context.Background(), nil); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	s := e.Session()
	if s == nil {
		t.Fatalf("expected the lesson to be reopened")
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, mutate.IDs(s.Blocks())); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
}

func TestEditor_Intents(t *testing.T) {
	e, r, _, _ := newTestEditor(t)
	s, _ := e.OpenLesson("les-1", nil)

	// Nothing selected: all intents except undo are no-ops.
	e.OnDuplicateIntent()
	e.OnDeleteIntent()
	s.Wait()
	if len(r.duplicates) != 0 || len(s.Blocks()) != 3 {
		t.Fatalf("expected no-op intents without selection")
	}

	// Multi selection: duplicate is a no-op, delete removes the set.
	s.ToggleSelect("A")
	s.ToggleSelect("C")
	e.OnDuplicateIntent()
	s.Wait()
	if len(r.duplicates) != 0 {
		t.Fatalf("duplicate must need a single selection")
	}
	e.OnDeleteIntent()
	s.Wait()
	if diff := cmp.Diff([]string{"B"}, mutate.IDs(s.Blocks())); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}

	s.Select("B")
	e.OnDuplicateIntent()
	s.Wait()
	if len(r.duplicates) != 1 {
		t.Fatalf("expected duplicate call, got %d", len(r.duplicates))
	}

	e.OnUndoIntent()
	if diff := cmp.Diff([]string{"B"}, mutate.IDs(s.Blocks())); diff != "" {
		t.Fatalf("undo of duplicate (-want +got):\n%s", diff)
	}
}
