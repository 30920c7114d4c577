package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Duration
	f       func()
	done    bool
	stopped bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.done || t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
}

type temporaryError struct {
	msg       string
	temporary bool
}

func (e temporaryError) Error() string   { return e.msg }
func (e temporaryError) Temporary() bool { return e.temporary }

var errUnavailable = temporaryError{msg: "503 service unavailable", temporary: true}

// fakeRemote keeps one lesson's blocks and records every call.
type fakeRemote struct {
	mu sync.Mutex

	course *model.Course
	stored []model.Block

	saves      [][]model.Block
	reorders   [][]string
	duplicates []string
	creates    []model.BlockSkeleton

	saveErrs     []error
	reorderErr   error
	duplicateErr error
	createFailAt int

	gate     chan struct{}
	started  chan struct{}
	inflight int
	maxInfl  int
	nextID   int
}

func newFakeRemote(stored []model.Block) *fakeRemote {
	return &fakeRemote{stored: mutate.Clone(stored), createFailAt: -1}
}

func (r *fakeRemote) enter() {
	r.mu.Lock()
	r.inflight++
	if r.inflight > r.maxInfl {
		r.maxInfl = r.inflight
	}
	gate, started := r.gate, r.started
	r.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
}

func (r *fakeRemote) leave() {
	r.mu.Lock()
	r.inflight--
	r.mu.Unlock()
}

func (r *fakeRemote) LoadCourse(ctx context.Context, courseID string) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.course == nil || r.course.ID != courseID {
		return nil, mutate.NotFoundError{Kind: "course", ID: courseID}
	}
	return cloneCourse(r.course), nil
}

func (r *fakeRemote) SaveBlocks(ctx context.Context, ref model.LessonRef, blocks []model.Block) ([]model.Block, error) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, mutate.Clone(blocks))
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	r.stored = mutate.Clone(blocks)
	return mutate.Clone(r.stored), nil
}

func (r *fakeRemote) ReorderBlocks(ctx context.Context, ref model.LessonRef, ids []string) ([]model.Block, error) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reorders = append(r.reorders, append([]string(nil), ids...))
	if r.reorderErr != nil {
		return nil, r.reorderErr
	}
	next, err := mutate.Reorder(r.stored, ids)
	if err != nil {
		return nil, err
	}
	r.stored = next
	return mutate.Clone(next), nil
}

func (r *fakeRemote) DuplicateBlock(ctx context.Context, ref model.LessonRef, id string) (model.Block, error) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates = append(r.duplicates, id)
	if r.duplicateErr != nil {
		return model.Block{}, r.duplicateErr
	}
	r.nextID++
	newID := fmt.Sprintf("dup%d", r.nextID)
	next, err := mutate.Duplicate(r.stored, id, newID)
	if err != nil {
		return model.Block{}, err
	}
	r.stored = next
	return next[mutate.Index(next, newID)], nil
}

func (r *fakeRemote) CreateBlock(ctx context.Context, ref model.LessonRef, sk model.BlockSkeleton) (model.Block, error) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := len(r.creates)
	r.creates = append(r.creates, sk)
	if r.createFailAt == idx {
		return model.Block{}, errors.New("generator backend down")
	}
	r.nextID++
	b := model.Block{ID: fmt.Sprintf("new%d", r.nextID), Type: sk.Type, Content: sk.Content}
	next, err := mutate.Add(r.stored, b)
	if err != nil {
		return model.Block{}, err
	}
	r.stored = next
	return next[len(next)-1], nil
}

func (r *fakeRemote) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *fakeRemote) lastSave() []model.Block {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return nil
	}
	return mutate.Clone(r.saves[len(r.saves)-1])
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) Notify(kind NoticeKind, msg string) {
	l.mu.Lock()
	l.notices = append(l.notices, Notice{Kind: kind, Message: msg})
	l.mu.Unlock()
}

func (l *noticeLog) count(kind NoticeKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, x := range l.notices {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

func (l *noticeLog) last() Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.notices) == 0 {
		return Notice{}
	}
	return l.notices[len(l.notices)-1]
}

func (l *noticeLog) contains(kind NoticeKind, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, x := range l.notices {
		if x.Kind == kind && strings.Contains(x.Message, substr) {
			return true
		}
	}
	return false
}

func blocks(ids ...string) []model.Block {
	out := make([]model.Block, 0, len(ids))
	for i, id := range ids {
		out = append(out, model.Block{
			ID:      id,
			Type:    model.BlockText,
			Order:   i,
			Content: []byte(fmt.Sprintf(`{"text":"%s"}`, id)),
		})
	}
	return out
}

var testRef = model.LessonRef{CourseID: "crs-1", ModuleID: "mod-1", LessonID: "les-1"}

type harness struct {
	s       *Session
	remote  *fakeRemote
	clock   *fakeClock
	notices *noticeLog
}

func newHarness(t *testing.T, ids ...string) *harness {
	t.Helper()
	initial := blocks(ids...)
	h := &harness{
		remote:  newFakeRemote(initial),
		clock:   &fakeClock{},
		notices: &noticeLog{},
	}
	h.s = NewSession(testRef, initial, h.remote, Options{
		Config:   DefaultConfig(),
		Clock:    h.clock,
		Notifier: h.notices,
	})
	t.Cleanup(func() { h.s.Close() })
	return h
}

// advance moves the fake clock and waits for the queue to drain.
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.s.Wait()
}
