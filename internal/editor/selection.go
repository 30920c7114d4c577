package editor

import "sort"

type SelectionMode int

const (
	SelectNone SelectionMode = iota
	SelectSingle
	SelectMulti
)

func (m SelectionMode) String() string {
	switch m {
	case SelectSingle:
		return "single"
	case SelectMulti:
		return "multi"
	default:
		return "none"
	}
}

// Selection is either nothing, one active block, or a set of blocks. The modes
// are exclusive: picking a single block clears the set and vice versa.
type Selection struct {
	single string
	multi  map[string]bool
}

func (s *Selection) Mode() SelectionMode {
	switch {
	case len(s.multi) > 0:
		return SelectMulti
	case s.single != "":
		return SelectSingle
	default:
		return SelectNone
	}
}

// Select makes id the single selection. An empty id clears.
func (s *Selection) Select(id string) {
	s.multi = nil
	s.single = id
}

// Toggle flips id's membership in the multi-set and drops any single selection.
func (s *Selection) Toggle(id string) {
	if id == "" {
		return
	}
	s.single = ""
	if s.multi == nil {
		s.multi = map[string]bool{}
	}
	if s.multi[id] {
		delete(s.multi, id)
	} else {
		s.multi[id] = true
	}
	if len(s.multi) == 0 {
		s.multi = nil
	}
}

func (s *Selection) Clear() {
	s.single = ""
	s.multi = nil
}

func (s *Selection) Single() (string, bool) {
	if len(s.multi) > 0 || s.single == "" {
		return "", false
	}
	return s.single, true
}

func (s *Selection) Has(id string) bool {
	if len(s.multi) > 0 {
		return s.multi[id]
	}
	return s.single != "" && s.single == id
}

// Targets is what a bulk action applies to: the multi-set when non-empty, else the single id.
func (s *Selection) Targets() []string {
	if len(s.multi) > 0 {
		out := make([]string, 0, len(s.multi))
		for id := range s.multi {
			out = append(out, id)
		}
		sort.Strings(out)
		return out
	}
	if s.single != "" {
		return []string{s.single}
	}
	return nil
}

// Retain forgets every selected id for which keep returns false.
func (s *Selection) Retain(keep func(id string) bool) {
	if s.single != "" && !keep(s.single) {
		s.single = ""
	}
	for id := range s.multi {
		if !keep(id) {
			delete(s.multi, id)
		}
	}
	if len(s.multi) == 0 {
		s.multi = nil
	}
}

// SelectionState is a read-only copy of a Selection.
type SelectionState struct {
	Mode SelectionMode
	IDs  []string
}

func (s *Selection) State() SelectionState {
	return SelectionState{Mode: s.Mode(), IDs: s.Targets()}
}
