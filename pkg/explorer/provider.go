package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sqltools/bigdata-connector/pkg/connection"
	"github.com/sqltools/bigdata-connector/pkg/credentials"
	"github.com/sqltools/bigdata-connector/pkg/filesource"
)

// slogKeyError is the slog attribute key for error values.
const slogKeyError = "error"

// ExpandInfo identifies the node an expansion request targets.
type ExpandInfo struct {
	SessionID string `json:"sessionId"`
	NodePath  string `json:"nodePath"`
}

// CloseResult reports the outcome of CloseSession.
type CloseResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

// FindNodesInfo is the input of the FindNodes placeholder.
type FindNodesInfo struct {
	SessionID string `json:"sessionId"`
	Pattern   string `json:"pattern"`
}

// FindNodesResult is the output of the FindNodes placeholder.
type FindNodesResult struct {
	Nodes []NodeInfo `json:"nodes"`
}

// ExplorerContext identifies a node from the host's side of the boundary:
// a connection plus an optional node path.
type ExplorerContext struct {
	// Connection identifies the session to search.
	Connection connection.Shape

	// IsConnectionNode marks a connection-level request: resolve the
	// session root instead of a path.
	IsConnectionNode bool

	// NodePath locates the node within the session when IsConnectionNode
	// is false.
	NodePath string
}

// Provider orchestrates Object Explorer sessions: it owns the session
// registry, schedules deferred construction and expansion work, and emits
// session/expansion events to the host. The registry mutex guards registry
// mutation only; IO always runs outside it, on the scheduler.
type Provider struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	owners   map[string]string // node ID -> owning session key

	creds    credentials.Store
	sources  *filesource.Registry
	notifier Notifier
	sched    Scheduler
	protocol string
	basePath string
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithCredentialStore sets the credential store consulted during session
// construction.
func WithCredentialStore(store credentials.Store) ProviderOption {
	return func(p *Provider) { p.creds = store }
}

// WithSourceRegistry sets the file-source factory registry.
func WithSourceRegistry(registry *filesource.Registry) ProviderOption {
	return func(p *Provider) { p.sources = registry }
}

// WithScheduler sets the deferred-work scheduler.
func WithScheduler(sched Scheduler) ProviderOption {
	return func(p *Provider) { p.sched = sched }
}

// WithProtocol sets the file-source protocol new sessions open.
func WithProtocol(protocol string) ProviderOption {
	return func(p *Provider) { p.protocol = protocol }
}

// WithBasePath sets the file-source base path new sessions open under.
func WithBasePath(basePath string) ProviderOption {
	return func(p *Provider) { p.basePath = basePath }
}

// NewProvider creates a provider emitting events to notifier. Defaults: an
// empty in-memory credential store, the built-in file-source factories, a
// fresh loop scheduler, and the webhdfs protocol.
func NewProvider(notifier Notifier, opts ...ProviderOption) *Provider {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	p := &Provider{
		sessions: make(map[string]*Session),
		owners:   make(map[string]string),
		notifier: notifier,
		protocol: "webhdfs",
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.creds == nil {
		p.creds = credentials.NewMemoryStore()
	}
	if p.sources == nil {
		p.sources = filesource.NewRegistry()
		filesource.RegisterBuiltinFactories(p.sources)
	}
	if p.sched == nil {
		p.sched = NewLoop()
	}
	return p
}

// Close stops the provider's own loop scheduler, if it owns one, after
// accepted work has drained. Sessions stay registered; process-lifetime
// state is dropped with the process.
func (p *Provider) Close() error {
	if loop, ok := p.sched.(*Loop); ok {
		return loop.Close()
	}
	return nil
}

// CreateSession derives the session key synchronously and schedules the
// actual construction (credential resolution, normalization, file-source
// and root build). At most one session-created event fires per call, never
// from this call's stack; a key already registered at construction time is
// skipped silently with no duplicate event. A host that pumps a Manual
// scheduler additionally observes the event strictly after the return; the
// loop scheduler may deliver it concurrently with it.
func (p *Provider) CreateSession(info connection.Shape) (string, error) {
	if info == nil {
		return "", fmt.Errorf("connection info is required")
	}

	key := connection.KeyFor(info)
	p.sched.Schedule(func(ctx context.Context) {
		p.buildSession(ctx, key, info)
	})
	return key, nil
}

// buildSession runs the deferred half of CreateSession.
func (p *Provider) buildSession(ctx context.Context, key string, info connection.Shape) {
	p.mu.Lock()
	_, exists := p.sessions[key]
	p.mu.Unlock()
	if exists {
		slog.Debug("explorer: session already exists, skipping construction", "session_id", key)
		return
	}

	shape := info
	if id := connection.ShapeID(shape); id != "" {
		srv, err := p.creds.GetServerInfo(ctx, id)
		if err != nil {
			p.failSession(key, fmt.Errorf("resolving server info: %w", err))
			return
		}
		if srv != nil {
			shape = connection.FillEndpoint(shape, srv.Host, srv.Port)
		}

		cred, err := p.creds.GetCredentials(ctx, id)
		if err != nil {
			p.failSession(key, fmt.Errorf("resolving credentials: %w", err))
			return
		}
		if cred != nil {
			shape = connection.FillPassword(shape, cred.Password)
		}
	}

	desc, err := connection.Normalize(shape)
	if err != nil {
		p.failSession(key, err)
		return
	}

	source, err := p.sources.Open(filesource.Options{
		Protocol: p.protocol,
		Host:     desc.Host(),
		Port:     desc.Port(),
		User:     desc.User(),
		Password: desc.Password(),
		BasePath: p.basePath,
	})
	if err != nil {
		p.failSession(key, err)
		return
	}

	root := NewRootNode(desc, source)
	sess := &Session{
		Key:        key,
		Connection: desc,
		Root:       root,
		source:     source,
	}

	p.mu.Lock()
	if _, exists := p.sessions[key]; exists {
		p.mu.Unlock()
		_ = source.Close()
		return
	}
	p.sessions[key] = sess
	p.order = append(p.order, key)
	p.owners[root.ID()] = key
	p.mu.Unlock()

	slog.Debug("explorer: session created", "session_id", key, "host", desc.Host())
	rootInfo := root.Info()
	p.notifier.SessionCreated(SessionResult{
		Success:   true,
		SessionID: key,
		RootNode:  &rootInfo,
	})
}

// failSession removes any registry entry for the key and emits the failure
// event. Deferred-work failures reach the caller only through this channel.
func (p *Provider) failSession(key string, err error) {
	p.mu.Lock()
	delete(p.sessions, key)
	p.mu.Unlock()

	slog.Debug("explorer: session construction failed", "session_id", key, slogKeyError, err)
	p.notifier.SessionCreated(SessionResult{
		SessionID:    key,
		ErrorMessage: err.Error(),
	})
}

// ExpandNode checks the request synchronously and schedules the path
// resolution and child fetch. A false return means the request was not
// recognized; an expansion-complete event carrying the reason is still
// scheduled, so every call yields exactly one event.
func (p *Provider) ExpandNode(info *ExpandInfo) bool {
	return p.expandNode(info, false)
}

// RefreshNode is ExpandNode with forced cache invalidation on the target
// node. It carries no further refresh semantics.
func (p *Provider) RefreshNode(info *ExpandInfo) bool {
	return p.expandNode(info, true)
}

func (p *Provider) expandNode(info *ExpandInfo, force bool) bool {
	if info == nil {
		p.scheduleExpandError(ExpandResult{
			ErrorMessage: "expand request is missing node info",
		})
		return false
	}

	p.mu.Lock()
	sess, ok := p.sessions[info.SessionID]
	p.mu.Unlock()
	if !ok {
		p.scheduleExpandError(ExpandResult{
			SessionID:    info.SessionID,
			NodePath:     info.NodePath,
			ErrorMessage: fmt.Sprintf("session not found: %s", info.SessionID),
		})
		return false
	}

	nodePath := info.NodePath
	p.sched.Schedule(func(ctx context.Context) {
		p.expand(ctx, sess, nodePath, force)
	})
	return true
}

// scheduleExpandError defers a rejection event so it is never delivered
// synchronously from the accept call.
func (p *Provider) scheduleExpandError(result ExpandResult) {
	p.sched.Schedule(func(_ context.Context) {
		p.notifier.ExpandCompleted(result)
	})
}

// expand runs the deferred half of ExpandNode. Intermediate nodes are
// resolved from cache; force invalidates the target node's cache only.
func (p *Provider) expand(ctx context.Context, sess *Session, nodePath string, force bool) {
	result := ExpandResult{
		SessionID: sess.Key,
		NodePath:  nodePath,
	}

	node, err := FindByPath(ctx, sess.Root, SplitPath(nodePath), false)
	switch {
	case err != nil:
		result.ErrorMessage = err.Error()
	case node == nil:
		result.ErrorMessage = fmt.Sprintf("node not found: %s", nodePath)
	default:
		var stale []string
		if force {
			stale = cachedSubtreeIDs(node)
		}
		children, err := node.Children(ctx, force)
		if err != nil {
			result.ErrorMessage = err.Error()
		} else {
			result.Nodes = make([]NodeInfo, 0, len(children))
			for _, child := range children {
				result.Nodes = append(result.Nodes, child.Info())
			}
			p.replaceOwners(sess.Key, stale, children)
		}
	}

	p.notifier.ExpandCompleted(result)
}

// cachedSubtreeIDs collects the IDs of the node's cached descendants. A
// forced rebuild replaces them with fresh nodes, so their owner-index
// entries must go with them.
func cachedSubtreeIDs(node Node) []string {
	cache, ok := node.(childCache)
	if !ok {
		return nil
	}

	var ids []string
	for _, child := range cache.cachedChildren() {
		ids = append(ids, child.ID())
		ids = append(ids, cachedSubtreeIDs(child)...)
	}
	return ids
}

// replaceOwners drops the owner-index entries of replaced nodes and records
// the owning session of freshly expanded ones.
func (p *Provider) replaceOwners(key string, stale []string, nodes []Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range stale {
		delete(p.owners, id)
	}
	for _, node := range nodes {
		p.owners[node.ID()] = key
	}
}

// CloseSession removes the session from the registry. Removal is
// unconditional and idempotent; a second close reports Success=false.
func (p *Provider) CloseSession(sessionID string) CloseResult {
	p.mu.Lock()
	sess, ok := p.sessions[sessionID]
	if ok {
		delete(p.sessions, sessionID)
		for i, key := range p.order {
			if key == sessionID {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
		for nodeID, owner := range p.owners {
			if owner == sessionID {
				delete(p.owners, nodeID)
			}
		}
	}
	p.mu.Unlock()

	if sess != nil {
		if err := sess.Close(); err != nil {
			slog.Debug("explorer: closing session source failed", "session_id", sessionID, slogKeyError, err)
		}
	}

	return CloseResult{Success: ok, SessionID: sessionID}
}

// FindNodes is a placeholder: node search has no implementation and always
// returns an empty node list.
func (p *Provider) FindNodes(_ FindNodesInfo) FindNodesResult {
	return FindNodesResult{Nodes: []NodeInfo{}}
}

// NotifyNodeChanged resolves the node's owning session through the
// node-owner index and schedules a refresh-class expansion of the node's
// current path. An unknown owner is reported to the caller; errors during
// the scheduled refresh are carried by the resulting expansion event and
// never propagate here.
func (p *Provider) NotifyNodeChanged(node Node) error {
	if node == nil {
		return fmt.Errorf("node is required")
	}

	p.mu.Lock()
	key, ok := p.owners[node.ID()]
	sess := p.sessions[key]
	p.mu.Unlock()
	if !ok || sess == nil {
		return fmt.Errorf("no session owns node %s", node.Path())
	}

	nodePath := node.Path()
	p.sched.Schedule(func(ctx context.Context) {
		p.expand(ctx, sess, nodePath, true)
	})
	return nil
}

// FindNodeForContext resolves a node from a host-side context. Sessions are
// matched against the context's connection in registry insertion order,
// first match wins. A nil result with nil error means nothing matched.
func (p *Provider) FindNodeForContext(ctx context.Context, ec *ExplorerContext) (Node, error) {
	if ec == nil || ec.Connection == nil {
		return nil, fmt.Errorf("explorer context requires a connection")
	}

	endpoint := connection.EndpointOf(ec.Connection)

	p.mu.Lock()
	var sess *Session
	for _, key := range p.order {
		candidate := p.sessions[key]
		if candidate != nil && candidate.Connection.Matches(endpoint) {
			sess = candidate
			break
		}
	}
	p.mu.Unlock()

	if sess == nil {
		return nil, nil
	}
	if ec.IsConnectionNode {
		return sess.Root, nil
	}
	return FindByPath(ctx, sess.Root, SplitPath(ec.NodePath), false)
}

// Sessions returns the registered session keys in insertion order.
func (p *Provider) Sessions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.order...)
}
