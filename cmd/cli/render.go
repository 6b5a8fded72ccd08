package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/jaywantadh/treecast/internal/filetree"
	"github.com/jaywantadh/treecast/internal/history"
)

func mark(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func printTree(w io.Writer, tr *filetree.Tracker) {
	tree := tr.Tree()
	tree.Walk(tree.Root(), func(id filetree.NodeID, n filetree.Node) bool {
		indent := strings.Repeat("  ", tree.Depth(id))
		name := n.File().Name()
		if n.IsFolder() {
			name += "/"
		}
		fmt.Fprintf(w, "%s%s %s (%s)\n", indent, mark(n.Selected), name, humanize.Bytes(uint64(n.Size)))
		return true
	})
}

func printSelection(w io.Writer, files []filetree.FileEntry) {
	fmt.Fprintf(w, "Selected %d file(s)\n", len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  Selected %s\n", f.Name())
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printHistory(w io.Writer, records []history.SessionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tROLE\tSTATUS\tPEER\tFILES\tSIZE\tSTARTED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(r.ID), r.Role, r.Status, r.Peer, len(r.Files),
			humanize.Bytes(uint64(r.Bytes)), humanize.Time(r.StartedAt))
		if r.Error != "" {
			fmt.Fprintf(tw, "\t\terror: %s\t\t\t\t\n", r.Error)
		}
	}
	tw.Flush()
}
