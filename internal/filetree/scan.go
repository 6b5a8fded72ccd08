package filetree

import (
	"fmt"
	"os"
	"path/filepath"
)

// ScanError reports the I/O failure that aborted a scan.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Scan walks rootPath recursively and builds a Tree. Sub-directories are
// scanned before being attached to their parent; regular files start
// unselected; symlinks and special files are skipped. Any error aborts the
// whole scan.
func Scan(rootPath string) (*Tree, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, &ScanError{Path: rootPath, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Path: rootPath, Err: fmt.Errorf("not a directory")}
	}

	t := newTree()
	root := t.add(Node{Kind: KindFolder, Path: filepath.Clean(rootPath), Parent: NoNode})
	if err := t.scanDir(root); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) scanDir(dir NodeID) error {
	dirPath := t.nodes[dir].Path
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return &ScanError{Path: dirPath, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(dirPath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return &ScanError{Path: path, Err: err}
		}

		switch {
		case info.IsDir():
			// Children need the folder's id, so the slot is claimed first
			// and its size filled in once the subtree is known.
			id := t.add(Node{Kind: KindFolder, Path: path, Parent: dir})
			if err := t.scanDir(id); err != nil {
				return err
			}
			t.nodes[dir].Size += t.nodes[id].Size
		case info.Mode().IsRegular():
			t.add(Node{Kind: KindFile, Path: path, Size: info.Size(), Parent: dir})
			t.nodes[dir].Size += info.Size()
		}
	}
	return nil
}
