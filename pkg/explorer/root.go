package explorer

import (
	"context"
	"sync"

	"github.com/sqltools/bigdata-connector/pkg/connection"
	"github.com/sqltools/bigdata-connector/pkg/filesource"
)

// RootNode is the per-session tree root. Its first expansion constructs
// exactly one child, the HDFS container bound to the session's file source;
// later calls serve the cached child until forced.
type RootNode struct {
	baseNode

	conn   *connection.Descriptor
	source filesource.Source

	// mu guards the children cache against concurrent expansion and
	// caller-side path lookups.
	mu        sync.Mutex
	children  []Node
	populated bool
}

// NewRootNode creates the root for a validated connection and its file source.
func NewRootNode(conn *connection.Descriptor, source filesource.Source) *RootNode {
	return &RootNode{
		baseNode: newBaseNode(""),
		conn:     conn,
		source:   source,
	}
}

// Children returns the root's single HDFS container child, constructing it
// on the first call or when forced.
func (n *RootNode) Children(_ context.Context, force bool) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.populated && !force {
		return n.children, nil
	}

	container := newContainerNode(n.source)
	container.attach(n)

	n.children = []Node{container}
	n.populated = true
	return n.children, nil
}

// cachedChildren returns the cache as-is, nil when never populated.
func (n *RootNode) cachedChildren() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.children
}

// Info projects the root for the wire: the connection host as label, never
// a leaf.
func (n *RootNode) Info() NodeInfo {
	return NodeInfo{
		Label:    n.conn.Host(),
		Path:     n.Path(),
		IsLeaf:   false,
		NodeType: NodeTypeRoot,
		IconType: "cluster",
	}
}

// Verify interface compliance.
var _ Node = (*RootNode)(nil)
