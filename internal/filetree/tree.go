// Package filetree models a scanned directory subtree and the selection
// state layered on top of it.
package filetree

import "path/filepath"

// NodeID indexes a node inside a Tree's arena.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

type Kind uint8

const (
	KindFolder Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// FileEntry describes a regular file as it was at scan time.
type FileEntry struct {
	Path string
	Size int64
}

// Name returns the base name of the file.
func (f FileEntry) Name() string {
	return filepath.Base(f.Path)
}

// FolderEntry describes a directory. Size is the sum of all descendant files.
type FolderEntry struct {
	Path string
	Size int64
}

func (f FolderEntry) Name() string {
	return filepath.Base(f.Path)
}

// Node is one arena slot: a folder or a file plus its selection flag.
type Node struct {
	Kind     Kind
	Path     string
	Size     int64
	Selected bool
	Parent   NodeID
	Children []NodeID
}

func (n Node) IsFolder() bool { return n.Kind == KindFolder }

// File returns the node as a FileEntry. Only meaningful for KindFile.
func (n Node) File() FileEntry {
	return FileEntry{Path: n.Path, Size: n.Size}
}

// Folder returns the node as a FolderEntry. Only meaningful for KindFolder.
func (n Node) Folder() FolderEntry {
	return FolderEntry{Path: n.Path, Size: n.Size}
}

// Tree is an arena of nodes. Node 0 is always the root folder and each
// folder owns the ordered child indices stored in its Children slice.
type Tree struct {
	nodes []Node
	index map[string]NodeID
}

func newTree() *Tree {
	return &Tree{index: make(map[string]NodeID)}
}

func (t *Tree) add(n Node) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	t.index[n.Path] = id
	if n.Parent != NoNode {
		p := &t.nodes[n.Parent]
		p.Children = append(p.Children, id)
	}
	return id
}

// Root returns the id of the root folder.
func (t *Tree) Root() NodeID { return 0 }

// Len reports the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id NodeID) Node {
	n := t.nodes[id]
	n.Children = append([]NodeID(nil), n.Children...)
	return n
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].Parent
}

// Lookup finds a node by the path recorded during the scan.
func (t *Tree) Lookup(path string) (NodeID, bool) {
	if id, ok := t.index[path]; ok {
		return id, true
	}
	id, ok := t.index[filepath.Clean(path)]
	return id, ok
}

// Walk visits id and all of its descendants in pre-order. Returning false
// from fn skips the children of the visited node.
func (t *Tree) Walk(id NodeID, fn func(NodeID, Node) bool) {
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(cur, t.nodes[cur]) {
			continue
		}
		children := t.nodes[cur].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Files lists every file leaf in pre-order.
func (t *Tree) Files() []FileEntry {
	var files []FileEntry
	t.Walk(t.Root(), func(_ NodeID, n Node) bool {
		if n.Kind == KindFile {
			files = append(files, n.File())
		}
		return true
	})
	return files
}

// Depth returns how many folders separate id from the root.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		d++
	}
	return d
}
