package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// Editor holds the course tree fetched on open and the session for the lesson
// being edited. Only one session exists at a time.
type Editor struct {
	remote Remote
	opts   Options
	log    *logger.Logger

	mu      sync.Mutex
	course  *model.Course
	session *Session
}

func New(remote Remote, opts Options) *Editor {
	opts.Config = opts.Config.withDefaults()
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	opts.Logger = logger.OrNop(opts.Logger)
	return &Editor{
		remote: remote,
		opts:   opts,
		log:    opts.Logger.With("component", "editor"),
	}
}

// OpenCourse fetches the course tree once. Any open session must be closed first.
func (e *Editor) OpenCourse(ctx context.Context, courseID string) error {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return errors.New("missing course id")
	}
	e.mu.Lock()
	open := e.session != nil
	e.mu.Unlock()
	if open {
		return errors.New("close the open lesson before opening a course")
	}

	course, err := e.load(ctx, courseID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.course = course
	e.mu.Unlock()
	e.log.Info("course opened", "courseId", course.ID, "modules", len(course.Modules))
	return nil
}

func (e *Editor) load(ctx context.Context, courseID string) (*model.Course, error) {
	cctx, cancel := context.WithTimeout(ctx, e.opts.Config.RequestTimeout)
	defer cancel()
	course, err := e.remote.LoadCourse(cctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}
	if course == nil {
		return nil, mutate.NotFoundError{Kind: "course", ID: courseID}
	}
	return course, nil
}

// Course returns a copy of the cached tree, or nil before OpenCourse.
func (e *Editor) Course() *model.Course {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneCourse(e.course)
}

// Session returns the open lesson's session, or nil.
func (e *Editor) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Editor) Dirty() bool {
	s := e.Session()
	return s != nil && s.Dirty()
}

// OpenLesson switches the editor to lessonID, asking confirm first when the
// current lesson has unsaved changes.
func (e *Editor) OpenLesson(lessonID string, confirm ConfirmFunc) (*Session, error) {
	e.mu.Lock()
	if e.course == nil {
		e.mu.Unlock()
		return nil, errors.New("no course open")
	}
	ref, ok := e.course.LessonRef(lessonID)
	if !ok {
		e.mu.Unlock()
		return nil, mutate.NotFoundError{Kind: "lesson", ID: lessonID}
	}
	current := e.session
	e.mu.Unlock()
	if current != nil && current.Ref() == ref {
		return current, nil
	}
	if err := e.confirmLeave(current, confirm, "Discard unsaved changes and switch lessons?"); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.closeSessionLocked(current); err != nil {
		return nil, err
	}
	lesson, _, _ := e.course.FindLesson(lessonID)
	e.session = NewSession(ref, lesson.Blocks, e.remote, e.opts)
	e.log.Info("lesson opened", "lessonId", ref.LessonID, "blocks", len(lesson.Blocks))
	return e.session, nil
}

// Close ends the open session (guarded). Closing with no session is a no-op.
func (e *Editor) Close(confirm ConfirmFunc) error {
	current := e.Session()
	if err := e.confirmLeave(current, confirm, "Discard unsaved changes and close the editor?"); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeSessionLocked(current)
}

// Reload refetches the course tree and reopens the current lesson when it still exists.
func (e *Editor) Reload(ctx context.Context, confirm ConfirmFunc) error {
	e.mu.Lock()
	if e.course == nil {
		e.mu.Unlock()
		return errors.New("no course open")
	}
	courseID := e.course.ID
	current := e.session
	e.mu.Unlock()
	lessonID := ""
	if current != nil {
		lessonID = current.Ref().LessonID
	}
	if err := e.confirmLeave(current, confirm, "Discard unsaved changes and reload the course?"); err != nil {
		return err
	}
	e.mu.Lock()
	err := e.closeSessionLocked(current)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	course, err := e.load(ctx, courseID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.course = course
	if lessonID == "" {
		return nil
	}
	if ref, ok := course.LessonRef(lessonID); ok {
		lesson, _, _ := course.FindLesson(lessonID)
		e.session = NewSession(ref, lesson.Blocks, e.remote, e.opts)
	}
	return nil
}

// confirmLeave runs the navigation guard for s. It must be called without e.mu
// held: confirm may read editor state.
func (e *Editor) confirmLeave(s *Session, confirm ConfirmFunc, prompt string) error {
	if s == nil {
		return nil
	}
	return guard(s.Dirty(), confirm, prompt)
}

// closeSessionLocked closes the open session and writes its acknowledged
// blocks back into the cached course tree. confirmed is the session the guard
// ran for; a different dirty session opened since then is left alone.
func (e *Editor) closeSessionLocked(confirmed *Session) error {
	if e.session == nil {
		return nil
	}
	if e.session != confirmed && e.session.Dirty() {
		return ErrNavigationCancelled
	}
	s := e.session
	e.session = nil
	acked := s.Close()
	if lesson, _, ok := e.course.FindLesson(s.Ref().LessonID); ok {
		lesson.Blocks = acked
	}
	return nil
}

// OnDuplicateIntent duplicates the single selected block; otherwise it does nothing.
func (e *Editor) OnDuplicateIntent() {
	s := e.Session()
	if s == nil {
		return
	}
	id, ok := s.singleSelected()
	if !ok {
		return
	}
	if err := s.Duplicate(id); err != nil {
		e.opts.Notifier.Notify(NoticeError, err.Error())
	}
}

func (e *Editor) OnDeleteIntent() {
	s := e.Session()
	if s == nil {
		return
	}
	if err := s.DeleteSelection(); err != nil {
		e.opts.Notifier.Notify(NoticeError, err.Error())
	}
}

func (e *Editor) OnUndoIntent() {
	s := e.Session()
	if s == nil {
		return
	}
	if err := s.Undo(); err != nil {
		e.opts.Notifier.Notify(NoticeError, err.Error())
	}
}

func (s *Session) singleSelected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Single()
}

func cloneCourse(c *model.Course) *model.Course {
	if c == nil {
		return nil
	}
	out := *c
	out.Modules = make([]model.Module, len(c.Modules))
	for mi, m := range c.Modules {
		m.Lessons = append([]model.Lesson(nil), m.Lessons...)
		for li := range m.Lessons {
			m.Lessons[li].Blocks = mutate.Clone(m.Lessons[li].Blocks)
		}
		out.Modules[mi] = m
	}
	return &out
}
