package editor

import (
	"strings"
	"sync"
)

type Intent int

const (
	IntentNone Intent = iota
	IntentDuplicate
	IntentDelete
	IntentUndo
)

func (i Intent) String() string {
	switch i {
	case IntentDuplicate:
		return "duplicate"
	case IntentDelete:
		return "delete"
	case IntentUndo:
		return "undo"
	default:
		return "none"
	}
}

// IntentHandler is the input port the editing core exposes to UI shells.
type IntentHandler interface {
	OnDuplicateIntent()
	OnDeleteIntent()
	OnUndoIntent()
}

type Focus int

const (
	FocusSurface Focus = iota
	// FocusTextInput means a control that consumes keystrokes (a block's own
	// fields) has focus; shortcuts must not fire.
	FocusTextInput
)

// Keymap lists the chords for each intent, in the "ctrl+d" notation terminal
// toolkits use for key names.
type Keymap struct {
	Duplicate []string `json:"duplicate,omitempty"`
	Delete    []string `json:"delete,omitempty"`
	Undo      []string `json:"undo,omitempty"`
}

func DefaultKeymap() Keymap {
	return Keymap{
		Duplicate: []string{"ctrl+d"},
		Delete:    []string{"delete", "backspace"},
		Undo:      []string{"ctrl+z"},
	}
}

// Dispatcher translates chords into intents while the editor surface is mounted.
type Dispatcher struct {
	handler IntentHandler

	mu      sync.Mutex
	chords  map[string]Intent
	mounted bool
	focus   Focus
}

func NewDispatcher(km Keymap, h IntentHandler) *Dispatcher {
	d := &Dispatcher{handler: h}
	d.SetKeymap(km)
	return d
}

// SetKeymap replaces the bindings; intents with no chords keep their defaults.
func (d *Dispatcher) SetKeymap(km Keymap) {
	def := DefaultKeymap()
	if len(km.Duplicate) == 0 {
		km.Duplicate = def.Duplicate
	}
	if len(km.Delete) == 0 {
		km.Delete = def.Delete
	}
	if len(km.Undo) == 0 {
		km.Undo = def.Undo
	}
	chords := map[string]Intent{}
	bind := func(keys []string, in Intent) {
		for _, k := range keys {
			if k = normalizeChord(k); k != "" {
				chords[k] = in
			}
		}
	}
	bind(km.Duplicate, IntentDuplicate)
	bind(km.Delete, IntentDelete)
	bind(km.Undo, IntentUndo)

	d.mu.Lock()
	d.chords = chords
	d.mu.Unlock()
}

func (d *Dispatcher) Mount() {
	d.mu.Lock()
	d.mounted = true
	d.mu.Unlock()
}

func (d *Dispatcher) Unmount() {
	d.mu.Lock()
	d.mounted = false
	d.focus = FocusSurface
	d.mu.Unlock()
}

func (d *Dispatcher) SetFocus(f Focus) {
	d.mu.Lock()
	d.focus = f
	d.mu.Unlock()
}

// Dispatch forwards the intent bound to chord and reports which one fired.
// Nothing fires while unmounted or while a text control has focus.
func (d *Dispatcher) Dispatch(chord string) Intent {
	d.mu.Lock()
	in := d.chords[normalizeChord(chord)]
	active := d.mounted && d.focus == FocusSurface && d.handler != nil
	d.mu.Unlock()
	if !active || in == IntentNone {
		return IntentNone
	}
	switch in {
	case IntentDuplicate:
		d.handler.OnDuplicateIntent()
	case IntentDelete:
		d.handler.OnDeleteIntent()
	case IntentUndo:
		d.handler.OnUndoIntent()
	}
	return in
}

func normalizeChord(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
