package filetree

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("no such node")
	ErrNotFile   = errors.New("node is not a file")
	ErrNotFolder = errors.New("node is not a folder")
)

// SelectionConsistencyError means the selection set and the node flags
// disagree. It points at a tracker bug; callers should report it.
type SelectionConsistencyError struct {
	Path   string
	Reason string
}

func (e *SelectionConsistencyError) Error() string {
	return fmt.Sprintf("selection inconsistent for %s: %s", e.Path, e.Reason)
}

// Tracker owns the selection flags of a Tree and keeps the flat,
// duplicate-free list of selected files in selection order.
type Tracker struct {
	tree     *Tree
	selected []FileEntry
}

// NewTracker wraps t. Any flags already set on t are adopted in pre-order.
func NewTracker(t *Tree) *Tracker {
	tr := &Tracker{tree: t}
	t.Walk(t.Root(), func(_ NodeID, n Node) bool {
		if n.Kind == KindFile && n.Selected {
			tr.selected = append(tr.selected, n.File())
		}
		return true
	})
	return tr
}

func (tr *Tracker) Tree() *Tree { return tr.tree }

// Selected returns a snapshot of the selection set.
func (tr *Tracker) Selected() []FileEntry {
	return append([]FileEntry(nil), tr.selected...)
}

func (tr *Tracker) Len() int { return len(tr.selected) }

func (tr *Tracker) lookup(path string) (NodeID, error) {
	id, ok := tr.tree.Lookup(path)
	if !ok {
		return NoNode, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return id, nil
}

// Toggle flips the node at path, cascading when it is a folder.
func (tr *Tracker) Toggle(path string) error {
	id, err := tr.lookup(path)
	if err != nil {
		return err
	}
	if tr.tree.nodes[id].Kind == KindFolder {
		return tr.SetFolder(path, !tr.tree.nodes[id].Selected)
	}
	return tr.setFile(id, !tr.tree.nodes[id].Selected)
}

// ToggleFile flips the selection flag of a single file.
func (tr *Tracker) ToggleFile(path string) error {
	id, err := tr.lookup(path)
	if err != nil {
		return err
	}
	n := &tr.tree.nodes[id]
	if n.Kind != KindFile {
		return fmt.Errorf("%w: %s", ErrNotFile, path)
	}
	return tr.setFile(id, !n.Selected)
}

// ToggleFolder flips the folder's flag and drives every descendant to the
// new value.
func (tr *Tracker) ToggleFolder(path string) error {
	id, err := tr.lookup(path)
	if err != nil {
		return err
	}
	return tr.SetFolder(path, !tr.tree.nodes[id].Selected)
}

// SetFolder sets the folder at path and all of its descendants to v.
// Descendants already equal to v are left alone.
func (tr *Tracker) SetFolder(path string, v bool) error {
	id, err := tr.lookup(path)
	if err != nil {
		return err
	}
	if tr.tree.nodes[id].Kind != KindFolder {
		return fmt.Errorf("%w: %s", ErrNotFolder, path)
	}

	tr.tree.nodes[id].Selected = v

	var firstErr error
	tr.tree.Walk(id, func(cur NodeID, n Node) bool {
		if cur == id || n.Selected == v {
			return true
		}
		if n.Kind == KindFolder {
			tr.tree.nodes[cur].Selected = v
			return true
		}
		if err := tr.setFile(cur, v); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

func (tr *Tracker) setFile(id NodeID, v bool) error {
	n := &tr.tree.nodes[id]
	if n.Selected == v {
		return nil
	}
	n.Selected = v

	if v {
		tr.selected = append(tr.selected, n.File())
		return nil
	}

	i := tr.indexOf(n.Path)
	if i < 0 {
		return &SelectionConsistencyError{Path: n.Path, Reason: "deselected file missing from selection set"}
	}
	tr.selected = append(tr.selected[:i], tr.selected[i+1:]...)
	return nil
}

func (tr *Tracker) indexOf(path string) int {
	for i, f := range tr.selected {
		if f.Path == path {
			return i
		}
	}
	return -1
}

// Verify checks that the selection set holds exactly the selected file
// nodes, each once.
func (tr *Tracker) Verify() error {
	seen := make(map[string]bool, len(tr.selected))
	for _, f := range tr.selected {
		if seen[f.Path] {
			return &SelectionConsistencyError{Path: f.Path, Reason: "duplicate entry"}
		}
		seen[f.Path] = true

		id, ok := tr.tree.Lookup(f.Path)
		if !ok || tr.tree.nodes[id].Kind != KindFile || !tr.tree.nodes[id].Selected {
			return &SelectionConsistencyError{Path: f.Path, Reason: "entry without a selected file node"}
		}
	}

	var err error
	tr.tree.Walk(tr.tree.Root(), func(_ NodeID, n Node) bool {
		if err == nil && n.Kind == KindFile && n.Selected && !seen[n.Path] {
			err = &SelectionConsistencyError{Path: n.Path, Reason: "selected file missing from selection set"}
		}
		return true
	})
	return err
}
