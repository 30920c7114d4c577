package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/model"
	"coursebuilder/internal/mutate"
)

type Options struct {
	Config   Config
	Clock    Clock
	Notifier Notifier
	Logger   *logger.Logger
}

// Session owns the block list of the one lesson open for editing.
//
// All state lives behind mu. Remote calls run on the session's command queue, so
// at most one of save, reorder, duplicate or outline is in flight at a time.
// Notices are collected while mu is held and delivered after it is released.
type Session struct {
	ref      model.LessonRef
	cfg      Config
	clock    Clock
	notifier Notifier
	remote   Remote
	log      *logger.Logger
	queue    *commandQueue

	mu        sync.Mutex
	blocks    []model.Block
	acked     []model.Block
	selection Selection
	history   history
	outbox    []Notice
	lastErr   error
	closed    bool

	// autosave
	saveQueued    bool
	saveInFlight  bool
	inflight      []model.Block
	retryAttempt  int
	debounceTimer Timer
	debounceGen   int
	retryTimer    Timer
	retryGen      int
}

// NewSession opens an editing session over blocks, which are taken as the
// remote store's current, acknowledged state for ref.
func NewSession(ref model.LessonRef, blocks []model.Block, remote Remote, opts Options) *Session {
	cfg := opts.Config.withDefaults()
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	log := logger.OrNop(opts.Logger).With("component", "editor", "lessonId", ref.LessonID)

	initial := sortByOrder(blocks)
	s := &Session{
		ref:      ref,
		cfg:      cfg,
		clock:    clock,
		notifier: notifier,
		remote:   remote,
		log:      log,
		queue:    newCommandQueue(context.Background(), log),
		blocks:   initial,
		acked:    mutate.Clone(initial),
		history:  history{limit: cfg.HistoryLimit},
	}
	return s
}

// sortByOrder copies blocks into position order and heals any gaps in Order.
func sortByOrder(blocks []model.Block) []model.Block {
	out := mutate.Clone(blocks)
	if out == nil {
		out = []model.Block{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Content = model.NormalizeContent(out[i].Content)
	}
	return mutate.Renumber(out)
}

func (s *Session) Ref() model.LessonRef { return s.ref }

// State is a consistent snapshot of the session.
type State struct {
	Ref          model.LessonRef
	Blocks       []model.Block
	Dirty        bool
	Saving       bool
	RetryAttempt int
	Selection    SelectionState
	CanUndo      bool
	LastError    error
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Ref:          s.ref,
		Blocks:       mutate.Clone(s.blocks),
		Dirty:        s.dirtyLocked(),
		Saving:       s.savingLocked(),
		RetryAttempt: s.retryAttempt,
		Selection:    s.selection.State(),
		CanUndo:      s.history.len() > 0,
		LastError:    s.lastErr,
	}
}

func (s *Session) Blocks() []model.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mutate.Clone(s.blocks)
}

// Acknowledged returns the last block list the remote store confirmed.
func (s *Session) Acknowledged() []model.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mutate.Clone(s.acked)
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) dirtyLocked() bool {
	return !mutate.Equal(s.blocks, s.acked)
}

func (s *Session) savingLocked() bool {
	return s.saveQueued || s.saveInFlight
}

// unlock releases mu and then delivers queued notices.
func (s *Session) unlock() {
	out := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	for _, n := range out {
		s.notifier.Notify(n.Kind, n.Message)
	}
}

func (s *Session) noticeLocked(kind NoticeKind, format string, args ...any) {
	s.outbox = append(s.outbox, Notice{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (s *Session) callCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.RequestTimeout)
}

// Add appends a block of type t with the given content (placeholder content when nil).
func (s *Session) Add(t model.BlockType, content []byte) (model.Block, error) {
	return s.Insert(t, content, -1)
}

// Insert places a new block at index at; a negative index appends.
func (s *Session) Insert(t model.BlockType, content []byte, at int) (model.Block, error) {
	id, err := model.NewID(model.PrefixBlock)
	if err != nil {
		return model.Block{}, fmt.Errorf("mint block id: %w", err)
	}
	if content == nil {
		content = model.PlaceholderContent(t)
	}
	b := model.Block{ID: id, Type: t, Content: content}

	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return model.Block{}, ErrClosed
	}
	if at < 0 {
		at = len(s.blocks)
	}
	next, err := mutate.Insert(s.blocks, b, at)
	if err != nil {
		return model.Block{}, err
	}
	s.history.push("add", removeBlock(id))
	s.blocks = next
	s.selection.Select(id)
	s.markDirtyLocked()
	return next[mutate.Index(next, id)], nil
}

// Update replaces one block's content.
func (s *Session) Update(id string, content []byte) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	next, err := mutate.Update(s.blocks, id, content)
	if err != nil {
		return err
	}
	if mutate.Equal(next, s.blocks) {
		return nil
	}
	s.history.push("update", restoreContent(id, s.blocks[mutate.Index(s.blocks, id)].Content))
	s.blocks = next
	s.markDirtyLocked()
	return nil
}

// Delete removes ids locally and flushes the autosave pipeline right away.
func (s *Session) Delete(ids []string) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	next, err := mutate.Delete(s.blocks, ids)
	if err != nil {
		return err
	}
	s.history.push("delete", reinsert(removedBlocks(s.blocks, next)))
	s.blocks = next
	s.selection.Retain(func(id string) bool { return mutate.Index(next, id) >= 0 })
	s.retryAttempt = 0
	s.requestSaveLocked()
	return nil
}

// DeleteSelection deletes the multi-selection, or the single selection. It is a
// no-op when nothing is selected.
func (s *Session) DeleteSelection() error {
	s.mu.Lock()
	targets := s.selection.Targets()
	s.mu.Unlock()
	if len(targets) == 0 {
		return nil
	}
	return s.Delete(targets)
}

// Undo takes back the latest recorded command and nothing else: blocks that
// arrived without a history entry (outline blocks, for one) stay put. Entries
// whose blocks are already gone are skipped. The result is persisted through
// the autosave pipeline like any edit.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	for {
		e, ok := s.history.pop()
		if !ok {
			s.noticeLocked(NoticeInfo, "Nothing to undo")
			return nil
		}
		next := e.undo(s.blocks)
		if mutate.Equal(next, s.blocks) {
			s.log.Debug("undo skipped", "op", e.op)
			continue
		}
		s.blocks = next
		s.selection.Retain(func(id string) bool { return mutate.Index(s.blocks, id) >= 0 })
		s.log.Debug("undo", "op", e.op)
		s.markDirtyLocked()
		return nil
	}
}

func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && mutate.Index(s.blocks, id) < 0 {
		return mutate.NotFoundError{Kind: "block", ID: id}
	}
	s.selection.Select(id)
	return nil
}

func (s *Session) ToggleSelect(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mutate.Index(s.blocks, id) < 0 {
		return mutate.NotFoundError{Kind: "block", ID: id}
	}
	s.selection.Toggle(id)
	return nil
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection.Clear()
	s.mu.Unlock()
}

func (s *Session) Selection() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.State()
}

// Wait blocks until every queued remote call has finished. Timers that have not
// fired yet are not waited for; use Save to flush a pending debounce first.
func (s *Session) Wait() {
	s.queue.wait()
}

// Close ends the session. Pending timers and queued commands are dropped; a call
// already in flight completes but its result is ignored. Close returns the
// acknowledged block list so the caller can refresh its cached copy of the lesson.
func (s *Session) Close() []model.Block {
	s.mu.Lock()
	if s.closed {
		acked := mutate.Clone(s.acked)
		s.mu.Unlock()
		return acked
	}
	s.closed = true
	s.stopTimersLocked()
	s.selection.Clear()
	acked := mutate.Clone(s.acked)
	s.mu.Unlock()

	s.queue.close()
	s.log.Debug("session closed")
	return acked
}

func (s *Session) stopTimersLocked() {
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.debounceGen++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.retryGen++
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}
