package filetree

import (
	"errors"
	"path/filepath"
	"sort"
	"testing"
)

func scanFixture(t *testing.T) (*Tracker, string) {
	t.Helper()
	root := makeTree(t, map[string]string{
		"a.txt":          "hello",
		"sub/b.txt":      "0123456789",
		"sub/deep/c.txt": "c",
		"other/d.txt":    "d",
	})
	tree, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return NewTracker(tree), root
}

func paths(files []FileEntry) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a = append([]string(nil), a...)
	b = append([]string(nil), b...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func flags(tree *Tree) map[NodeID]bool {
	out := make(map[NodeID]bool)
	tree.Walk(tree.Root(), func(id NodeID, n Node) bool {
		out[id] = n.Selected
		return true
	})
	return out
}

func TestSelectRootSelectsAllFiles(t *testing.T) {
	tr, root := scanFixture(t)

	if err := tr.ToggleFolder(root); err != nil {
		t.Fatalf("ToggleFolder: %v", err)
	}
	if !sameSet(paths(tr.Selected()), paths(tr.Tree().Files())) {
		t.Errorf("selected %v, want all files %v", paths(tr.Selected()), paths(tr.Tree().Files()))
	}
	tr.Tree().Walk(tr.Tree().Root(), func(_ NodeID, n Node) bool {
		if !n.Selected {
			t.Errorf("%s not selected after cascade", n.Path)
		}
		return true
	})
	if err := tr.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestToggleFolderTwiceRestoresState(t *testing.T) {
	tr, root := scanFixture(t)
	if err := tr.ToggleFile(filepath.Join(root, "a.txt")); err != nil {
		t.Fatal(err)
	}

	beforeFlags := flags(tr.Tree())
	beforeSel := paths(tr.Selected())

	sub := filepath.Join(root, "sub")
	for i := 0; i < 2; i++ {
		if err := tr.ToggleFolder(sub); err != nil {
			t.Fatalf("ToggleFolder #%d: %v", i+1, err)
		}
	}

	afterFlags := flags(tr.Tree())
	for id, v := range beforeFlags {
		if afterFlags[id] != v {
			t.Errorf("node %s flag = %v, want %v", tr.Tree().Node(id).Path, afterFlags[id], v)
		}
	}
	afterSel := paths(tr.Selected())
	if len(afterSel) != len(beforeSel) || afterSel[0] != beforeSel[0] {
		t.Errorf("selection = %v, want %v", afterSel, beforeSel)
	}
}

func TestCascadeIsSymmetric(t *testing.T) {
	tr, root := scanFixture(t)
	b := filepath.Join(root, "sub", "b.txt")
	deep := filepath.Join(root, "sub", "deep")

	// b is already selected; selecting sub must keep it selected rather
	// than flipping it.
	if err := tr.ToggleFile(b); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetFolder(filepath.Join(root, "sub"), true); err != nil {
		t.Fatal(err)
	}
	id, _ := tr.Tree().Lookup(b)
	if !tr.Tree().Node(id).Selected {
		t.Error("cascade inverted an already-selected file")
	}
	deepID, _ := tr.Tree().Lookup(deep)
	if !tr.Tree().Node(deepID).Selected {
		t.Error("nested folder not selected")
	}
	if tr.Len() != 2 {
		t.Errorf("selection has %d entries, want 2: %v", tr.Len(), paths(tr.Selected()))
	}
	if err := tr.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestToggleFileOrder(t *testing.T) {
	tr, root := scanFixture(t)
	order := []string{
		filepath.Join(root, "other", "d.txt"),
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub", "b.txt"),
	}
	for _, p := range order {
		if err := tr.ToggleFile(p); err != nil {
			t.Fatalf("ToggleFile(%s): %v", p, err)
		}
	}
	got := paths(tr.Selected())
	for i := range order {
		if got[i] != order[i] {
			t.Fatalf("selection order = %v, want %v", got, order)
		}
	}

	if err := tr.ToggleFile(order[1]); err != nil {
		t.Fatal(err)
	}
	got = paths(tr.Selected())
	if len(got) != 2 || got[0] != order[0] || got[1] != order[2] {
		t.Errorf("after deselect = %v", got)
	}
}

func TestSelectedIsSnapshot(t *testing.T) {
	tr, root := scanFixture(t)
	if err := tr.ToggleFile(filepath.Join(root, "a.txt")); err != nil {
		t.Fatal(err)
	}
	snap := tr.Selected()
	if err := tr.ToggleFolder(root); err != nil {
		t.Fatal(err)
	}
	if len(snap) != 1 {
		t.Errorf("snapshot changed to %d entries", len(snap))
	}
}

func TestToggleErrors(t *testing.T) {
	tr, root := scanFixture(t)

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"file on folder", func() error { return tr.ToggleFile(filepath.Join(root, "sub")) }, ErrNotFile},
		{"folder on file", func() error { return tr.ToggleFolder(filepath.Join(root, "a.txt")) }, ErrNotFolder},
		{"missing file", func() error { return tr.ToggleFile(filepath.Join(root, "nope")) }, ErrNotFound},
		{"missing folder", func() error { return tr.Toggle(filepath.Join(root, "nope")) }, ErrNotFound},
	}
	for _, tt := range tests {
		if err := tt.fn(); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestDeselectMissingEntryReportsConsistencyError(t *testing.T) {
	tr, root := scanFixture(t)
	a := filepath.Join(root, "a.txt")
	if err := tr.ToggleFile(a); err != nil {
		t.Fatal(err)
	}
	// Corrupt the set behind the tracker's back.
	tr.selected = nil

	err := tr.ToggleFile(a)
	var consistency *SelectionConsistencyError
	if !errors.As(err, &consistency) {
		t.Fatalf("got %v, want SelectionConsistencyError", err)
	}
	if consistency.Path != a {
		t.Errorf("error path = %s", consistency.Path)
	}
}

func TestVerifyDetectsDuplicates(t *testing.T) {
	tr, root := scanFixture(t)
	if err := tr.ToggleFile(filepath.Join(root, "a.txt")); err != nil {
		t.Fatal(err)
	}
	tr.selected = append(tr.selected, tr.selected[0])

	var consistency *SelectionConsistencyError
	if err := tr.Verify(); !errors.As(err, &consistency) {
		t.Errorf("Verify = %v, want SelectionConsistencyError", err)
	}
}

func TestToggleDispatch(t *testing.T) {
	tr, root := scanFixture(t)
	if err := tr.Toggle(filepath.Join(root, "other")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Toggle(filepath.Join(root, "a.txt")); err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "other", "d.txt"), filepath.Join(root, "a.txt")}
	if !sameSet(paths(tr.Selected()), want) {
		t.Errorf("selected = %v, want %v", paths(tr.Selected()), want)
	}
}

func TestNewTrackerAdoptsFlags(t *testing.T) {
	tr, root := scanFixture(t)
	if err := tr.ToggleFolder(filepath.Join(root, "sub")); err != nil {
		t.Fatal(err)
	}
	again := NewTracker(tr.Tree())
	if again.Len() != 2 {
		t.Errorf("adopted %d entries, want 2", again.Len())
	}
	if err := again.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
