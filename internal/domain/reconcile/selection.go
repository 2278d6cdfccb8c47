package reconcile

import (
	"errors"
	"sort"
)

// ErrSelectionConfirmed is returned when a confirmed selection is mutated.
var ErrSelectionConfirmed = errors.New("selection already confirmed")

// State is the lifecycle position of a selection.
type State string

const (
	StateUnresolved  State = "unresolved"
	StatePartitioned State = "partitioned"
	StateSelected    State = "selected"
	StateConfirmed   State = "confirmed"
)

// Selection tracks which imported candidates will be imported. It never
// mutates the partition it was built from.
type Selection struct {
	order    []Candidate // all imported candidates, in input order
	known    map[string]bool
	selected map[string]bool
	state    State
}

// DefaultSelection pre-selects every imported-only candidate. Imported
// candidates that appear in any match stay unselected whatever their band.
// Candidates are kept in imported input order (Candidate.Index).
func DefaultSelection(p Partition) *Selection {
	s := &Selection{
		known:    make(map[string]bool, len(p.Matched)+len(p.ImportedOnly)),
		selected: make(map[string]bool, len(p.ImportedOnly)),
		state:    StateSelected,
	}

	for _, m := range p.Matched {
		s.order = append(s.order, m.Imported)
		s.known[m.Imported.ID] = true
	}
	for _, c := range p.ImportedOnly {
		s.order = append(s.order, c)
		s.known[c.ID] = true
		s.selected[c.ID] = true
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		return s.order[i].Index < s.order[j].Index
	})

	return s
}

// NewSelection builds the default selection and restores it to the imported
// input order given by importedOrder (ids). Unknown ids in importedOrder are
// ignored.
func NewSelection(p Partition, importedOrder []string) *Selection {
	s := DefaultSelection(p)
	if len(importedOrder) == 0 {
		return s
	}

	byID := make(map[string]Candidate, len(s.order))
	for _, c := range s.order {
		byID[c.ID] = c
	}
	ordered := make([]Candidate, 0, len(s.order))
	for _, id := range importedOrder {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
			delete(byID, id)
		}
	}
	// anything importedOrder did not mention keeps its relative position at the end
	for _, c := range s.order {
		if _, ok := byID[c.ID]; ok {
			ordered = append(ordered, c)
		}
	}
	s.order = ordered
	return s
}

// State returns the lifecycle state.
func (s *Selection) State() State {
	return s.state
}

// Select marks id for import.
func (s *Selection) Select(id string) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.selected[id] = true
	return nil
}

// Deselect removes id from the import set.
func (s *Selection) Deselect(id string) error {
	if err := s.check(id); err != nil {
		return err
	}
	delete(s.selected, id)
	return nil
}

// Toggle flips the selection state of id.
func (s *Selection) Toggle(id string) error {
	if err := s.check(id); err != nil {
		return err
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return nil
}

// IsSelected reports whether id is currently selected.
func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.selected)
}

// IDs returns the selected ids in candidate order: imported input order for
// a selection built by NewSelection, partition order otherwise.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.selected))
	for _, c := range s.order {
		if s.selected[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Finalize confirms the selection and returns the selected imported
// candidates unchanged, in the same order as IDs. A confirmed selection
// rejects further mutation.
func (s *Selection) Finalize() []Candidate {
	out := make([]Candidate, 0, len(s.selected))
	for _, c := range s.order {
		if s.selected[c.ID] {
			out = append(out, c)
		}
	}
	s.state = StateConfirmed
	return out
}

func (s *Selection) check(id string) error {
	if s.state == StateConfirmed {
		return ErrSelectionConfirmed
	}
	if !s.known[id] {
		return &InvalidSelectionError{ID: id}
	}
	return nil
}
