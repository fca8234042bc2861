package explorer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sqltools/bigdata-connector/pkg/filesource"
)

// hdfsContainerName is the label and path segment of the per-session HDFS
// container node.
const hdfsContainerName = "HDFS"

// attachable is implemented by every node variant through baseNode.
type attachable interface {
	attach(parent Node)
}

// childCache exposes a node's cached children without triggering IO. Nodes
// without a cache simply do not implement it.
type childCache interface {
	cachedChildren() []Node
}

// baseNode carries identity and the parent back-reference shared by all
// node variants.
type baseNode struct {
	id     string
	name   string
	parent Node
}

func newBaseNode(name string) baseNode {
	return baseNode{
		id:   uuid.NewString(),
		name: name,
	}
}

// ID returns the node's stable identity.
func (b *baseNode) ID() string { return b.id }

// Parent returns the owning node, nil for the root.
func (b *baseNode) Parent() Node { return b.parent }

// attach sets the parent back-reference. Called exactly once, when the node
// is added to its parent's children.
func (b *baseNode) attach(parent Node) {
	if b.parent != nil {
		return
	}
	b.parent = parent
}

// Segments returns the node's path segments from the root.
func (b *baseNode) Segments() []string {
	if b.parent == nil {
		return nil
	}
	return append(append([]string{}, b.parent.Segments()...), b.name)
}

// Path returns the node's slash-joined path.
func (b *baseNode) Path() string { return JoinSegments(b.Segments()) }

// folderNode is a directory in the cluster file system. The per-session
// HDFS container is a folder node rooted at the source base path.
type folderNode struct {
	baseNode

	source     filesource.Source
	sourcePath string
	container  bool

	// mu guards the children cache. Expansions run on the scheduler while
	// context lookups resolve paths on the caller's goroutine, so the cache
	// must carry its own lock.
	mu        sync.Mutex
	children  []Node
	populated bool
}

func newContainerNode(source filesource.Source) *folderNode {
	return &folderNode{
		baseNode:   newBaseNode(hdfsContainerName),
		source:     source,
		sourcePath: "/",
		container:  true,
	}
}

func newFolderNode(name string, source filesource.Source, sourcePath string) *folderNode {
	return &folderNode{
		baseNode:   newBaseNode(name),
		source:     source,
		sourcePath: sourcePath,
	}
}

// Children lists the directory on first call or when forced, and serves the
// cache otherwise.
func (n *folderNode) Children(ctx context.Context, force bool) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.populated && !force {
		return n.children, nil
	}

	entries, err := n.source.List(ctx, n.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", n.Path(), err)
	}

	children := make([]Node, 0, len(entries))
	for _, entry := range entries {
		childPath := joinSourcePath(n.sourcePath, entry.Name)
		var child Node
		if entry.Dir {
			child = newFolderNode(entry.Name, n.source, childPath)
		} else {
			child = newFileNode(entry.Name, n.source, childPath, entry.Size)
		}
		if a, ok := child.(attachable); ok {
			a.attach(n)
		}
		children = append(children, child)
	}

	n.children = children
	n.populated = true
	return children, nil
}

// cachedChildren returns the cache as-is, nil when never populated.
func (n *folderNode) cachedChildren() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.children
}

// Info projects the folder for the wire.
func (n *folderNode) Info() NodeInfo {
	nodeType := NodeTypeFolder
	icon := "folder"
	if n.container {
		nodeType = NodeTypeHDFS
		icon = "hdfs"
	}
	return NodeInfo{
		Label:    n.name,
		Path:     n.Path(),
		IsLeaf:   false,
		NodeType: nodeType,
		IconType: icon,
	}
}

// fileNode is a leaf file in the cluster file system.
type fileNode struct {
	baseNode

	source     filesource.Source
	sourcePath string
	size       int64
}

func newFileNode(name string, source filesource.Source, sourcePath string, size int64) *fileNode {
	return &fileNode{
		baseNode:   newBaseNode(name),
		source:     source,
		sourcePath: sourcePath,
		size:       size,
	}
}

// Children of a file are always empty; files never suspend.
func (n *fileNode) Children(_ context.Context, _ bool) ([]Node, error) {
	return nil, nil
}

// Info projects the file for the wire.
func (n *fileNode) Info() NodeInfo {
	return NodeInfo{
		Label:    n.name,
		Path:     n.Path(),
		IsLeaf:   true,
		NodeType: NodeTypeFile,
		IconType: "file",
	}
}

// joinSourcePath appends a name to a source-relative directory path.
func joinSourcePath(dir, name string) string {
	if dir == "/" || dir == "" {
		return "/" + name
	}
	return dir + "/" + name
}

// Verify interface compliance.
var (
	_ Node = (*folderNode)(nil)
	_ Node = (*fileNode)(nil)
)
