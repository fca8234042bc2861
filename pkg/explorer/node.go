// Package explorer implements the Object Explorer core: per-connection tree
// sessions over a cluster file source, lazy node expansion, and the
// two-phase request/completion protocol the host UI drives it with.
package explorer

import (
	"context"
	"strings"
)

// Node type tags reported through NodeInfo.
const (
	NodeTypeRoot   = "bigdata:root"
	NodeTypeHDFS   = "bigdata:hdfs"
	NodeTypeFolder = "bigdata:folder"
	NodeTypeFile   = "bigdata:file"
)

// NodeInfo is the wire-facing projection of a tree node. It is always
// recomputed from the live node, never stored.
type NodeInfo struct {
	Label        string `json:"label"`
	Path         string `json:"nodePath"`
	IsLeaf       bool   `json:"isLeaf"`
	NodeType     string `json:"nodeType"`
	NodeSubType  string `json:"nodeSubType,omitempty"`
	IconType     string `json:"iconType,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Node is one unit of the lazily populated tree.
type Node interface {
	// ID returns the node's stable identity, assigned at construction.
	ID() string

	// Parent returns the owning node, nil for the root. The back-reference
	// is read-only navigation; children never mutate their parent.
	Parent() Node

	// Segments returns the node's path as segment names from the root.
	Segments() []string

	// Path returns the node's slash-joined path ("/" for the root).
	Path() string

	// Children returns the node's children, fetching them on the first call
	// or when force is true and serving the cache otherwise. May perform IO.
	Children(ctx context.Context, force bool) ([]Node, error)

	// Info projects the node for the wire. It never performs IO and never
	// fails; node-level errors ride the ErrorMessage field.
	Info() NodeInfo
}

// FindByPath descends from node by exact segment matching, expanding
// intermediate nodes as needed. A nil result with nil error means the path
// does not exist; that is a valid outcome, not a lookup failure.
func FindByPath(ctx context.Context, node Node, segments []string, force bool) (Node, error) {
	if len(segments) == 0 {
		return node, nil
	}

	children, err := node.Children(ctx, force)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		segs := child.Segments()
		if len(segs) > 0 && segs[len(segs)-1] == segments[0] {
			return FindByPath(ctx, child, segments[1:], force)
		}
	}
	return nil, nil
}

// SplitPath converts a slash-joined node path into segments. The root path
// ("/" or empty) yields no segments.
func SplitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// JoinSegments converts segments back into a slash-joined node path.
func JoinSegments(segments []string) string {
	return "/" + strings.Join(segments, "/")
}
