package explorer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqltools/bigdata-connector/pkg/connection"
	"github.com/sqltools/bigdata-connector/pkg/credentials"
	"github.com/sqltools/bigdata-connector/pkg/filesource"
)

// recorder captures provider events for assertions.
type recorder struct {
	mu       sync.Mutex
	sessions []SessionResult
	expands  []ExpandResult
}

func (r *recorder) SessionCreated(result SessionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, result)
}

func (r *recorder) ExpandCompleted(result ExpandResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expands = append(r.expands, result)
}

func (r *recorder) sessionEvents() []SessionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionResult{}, r.sessions...)
}

func (r *recorder) expandEvents() []ExpandResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExpandResult{}, r.expands...)
}

// fixture bundles a provider on a manual scheduler over a seeded memory
// file source.
type fixture struct {
	provider *Provider
	sched    *Manual
	rec      *recorder
	source   *filesource.MemorySource
	creds    *credentials.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	source := filesource.NewMemorySource()
	source.PutDir("data")
	source.PutFile("data/events.csv", []byte("a,b\n1,2\n"))
	source.PutFile("readme.txt", []byte("hello"))

	registry := filesource.NewRegistry()
	registry.RegisterFactory("memory", func(_ filesource.Options) (filesource.Source, error) {
		return source, nil
	})

	sched := NewManual()
	rec := &recorder{}
	creds := credentials.NewMemoryStore()

	provider := NewProvider(rec,
		WithScheduler(sched),
		WithSourceRegistry(registry),
		WithProtocol("memory"),
		WithCredentialStore(creds),
	)

	return &fixture{
		provider: provider,
		sched:    sched,
		rec:      rec,
		source:   source,
		creds:    creds,
	}
}

func testShape() connection.Connection {
	return connection.Connection{
		ConnectionID: "conn-1",
		Host:         "h",
		User:         "root",
		Password:     "p",
	}
}

// createActiveSession creates a session and pumps the scheduler until the
// session is active.
func (f *fixture) createActiveSession(t *testing.T) string {
	t.Helper()

	sessionID, err := f.provider.CreateSession(testShape())
	require.NoError(t, err)
	f.sched.Run(context.Background())

	events := f.rec.sessionEvents()
	require.NotEmpty(t, events)
	require.True(t, events[len(events)-1].Success)
	return sessionID
}

func TestCreateSession_KeyDerivedSynchronously(t *testing.T) {
	f := newFixture(t)

	sessionID, err := f.provider.CreateSession(testShape())
	require.NoError(t, err)
	assert.Equal(t, "bigdata://root@h:30443/", sessionID)
}

func TestCreateSession_NilInfoRejectedSynchronously(t *testing.T) {
	f := newFixture(t)

	_, err := f.provider.CreateSession(nil)
	require.Error(t, err)
	assert.Zero(t, f.sched.Pending(), "no work scheduled for a rejected request")
}

func TestCreateSession_NoEventBeforeReturn(t *testing.T) {
	f := newFixture(t)

	_, err := f.provider.CreateSession(testShape())
	require.NoError(t, err)

	// Construction is queued, not run: no event can have fired yet.
	assert.Empty(t, f.rec.sessionEvents())
	assert.Equal(t, 1, f.sched.Pending())

	f.sched.Run(context.Background())
	require.Len(t, f.rec.sessionEvents(), 1)
}

func TestCreateSession_Success(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)

	events := f.rec.sessionEvents()
	require.Len(t, events, 1)
	event := events[0]

	assert.True(t, event.Success)
	assert.Equal(t, sessionID, event.SessionID)
	require.NotNil(t, event.RootNode)
	assert.Equal(t, "h", event.RootNode.Label)
	assert.False(t, event.RootNode.IsLeaf)
	assert.Equal(t, NodeTypeRoot, event.RootNode.NodeType)
	assert.Empty(t, event.ErrorMessage)

	assert.Equal(t, []string{sessionID}, f.provider.Sessions())
}

func TestCreateSession_DuplicateKeyEmitsOneEvent(t *testing.T) {
	f := newFixture(t)

	first, err := f.provider.CreateSession(testShape())
	require.NoError(t, err)
	second, err := f.provider.CreateSession(testShape())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	f.sched.Run(context.Background())

	events := f.rec.sessionEvents()
	require.Len(t, events, 1, "duplicate construction must be skipped silently")
	assert.True(t, events[0].Success)
}

func TestCreateSession_MissingPasswordFails(t *testing.T) {
	f := newFixture(t)

	shape := testShape()
	shape.Password = ""
	sessionID, err := f.provider.CreateSession(shape)
	require.NoError(t, err, "key derivation is synchronous and always succeeds")

	f.sched.Run(context.Background())

	events := f.rec.sessionEvents()
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Equal(t, sessionID, events[0].SessionID)
	assert.Contains(t, events[0].ErrorMessage, "password")
	assert.Nil(t, events[0].RootNode)
	assert.Empty(t, f.provider.Sessions(), "failed construction leaves no registry entry")
}

func TestCreateSession_ResolvesCredentialsFromStore(t *testing.T) {
	f := newFixture(t)
	f.creds.PutCredentials("conn-1", &credentials.Credential{User: "root", Password: "from-store"})

	shape := testShape()
	shape.Password = ""
	_, err := f.provider.CreateSession(shape)
	require.NoError(t, err)

	f.sched.Run(context.Background())

	events := f.rec.sessionEvents()
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
}

func TestCreateSession_ResolvesEndpointFromStore(t *testing.T) {
	f := newFixture(t)
	f.creds.PutServerInfo(&credentials.ServerInfo{ID: "conn-1", Host: "h", Port: "30443"})
	f.creds.PutCredentials("conn-1", &credentials.Credential{User: "root", Password: "p"})

	// An ID-only shape: endpoint and password both come from the store.
	shape := testShape()
	shape.Host = ""
	shape.Password = ""
	_, err := f.provider.CreateSession(shape)
	require.NoError(t, err)

	f.sched.Run(context.Background())

	events := f.rec.sessionEvents()
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
	require.NotNil(t, events[0].RootNode)
	assert.Equal(t, "h", events[0].RootNode.Label)
}

func TestCreateSession_SourceOpenFailure(t *testing.T) {
	f := newFixture(t)

	registry := filesource.NewRegistry()
	registry.RegisterFactory("memory", func(_ filesource.Options) (filesource.Source, error) {
		return nil, fmt.Errorf("gateway unreachable")
	})
	provider := NewProvider(f.rec,
		WithScheduler(f.sched),
		WithSourceRegistry(registry),
		WithProtocol("memory"),
	)

	_, err := provider.CreateSession(testShape())
	require.NoError(t, err)
	f.sched.Run(context.Background())

	events := f.rec.sessionEvents()
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "gateway unreachable")
}

func TestExpandNode_NilInfo(t *testing.T) {
	f := newFixture(t)

	accepted := f.provider.ExpandNode(nil)
	assert.False(t, accepted)
	assert.Empty(t, f.rec.expandEvents(), "rejection event is deferred, never synchronous")

	f.sched.Run(context.Background())

	events := f.rec.expandEvents()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ErrorMessage)
}

func TestExpandNode_UnknownSession(t *testing.T) {
	f := newFixture(t)

	accepted := f.provider.ExpandNode(&ExpandInfo{SessionID: "bigdata://nobody@h:30443/", NodePath: "/"})
	assert.False(t, accepted)

	f.sched.Run(context.Background())

	events := f.rec.expandEvents()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].ErrorMessage, "session not found")
	assert.Equal(t, "bigdata://nobody@h:30443/", events[0].SessionID)
}

func TestExpandNode_RootYieldsHDFSContainer(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)

	accepted := f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/"})
	require.True(t, accepted)
	f.sched.Run(context.Background())

	events := f.rec.expandEvents()
	require.Len(t, events, 1)
	event := events[0]

	assert.Empty(t, event.ErrorMessage)
	assert.Equal(t, sessionID, event.SessionID)
	require.Len(t, event.Nodes, 1)
	assert.Equal(t, "HDFS", event.Nodes[0].Label)
	assert.Equal(t, "/HDFS", event.Nodes[0].Path)
	assert.False(t, event.Nodes[0].IsLeaf)
	assert.Equal(t, NodeTypeHDFS, event.Nodes[0].NodeType)
}

func TestExpandNode_DescendsIntoFolders(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)
	ctx := context.Background()

	require.True(t, f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS"}))
	f.sched.Run(ctx)

	events := f.rec.expandEvents()
	require.Len(t, events, 1)
	require.Len(t, events[0].Nodes, 2)
	assert.Equal(t, "data", events[0].Nodes[0].Label)
	assert.False(t, events[0].Nodes[0].IsLeaf)
	assert.Equal(t, "readme.txt", events[0].Nodes[1].Label)
	assert.True(t, events[0].Nodes[1].IsLeaf)

	require.True(t, f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"}))
	f.sched.Run(ctx)

	events = f.rec.expandEvents()
	require.Len(t, events, 2)
	require.Len(t, events[1].Nodes, 1)
	assert.Equal(t, "events.csv", events[1].Nodes[0].Label)
	assert.Equal(t, "/HDFS/data/events.csv", events[1].Nodes[0].Path)
	assert.Equal(t, NodeTypeFile, events[1].Nodes[0].NodeType)
}

func TestExpandNode_PathNotFound(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)

	require.True(t, f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/missing"}))
	f.sched.Run(context.Background())

	events := f.rec.expandEvents()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].ErrorMessage, "node not found")
	assert.Empty(t, events[0].Nodes)
}

func TestRefreshNode_PicksUpNewEntries(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)
	ctx := context.Background()

	require.True(t, f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"}))
	f.sched.Run(ctx)
	require.Len(t, f.rec.expandEvents()[0].Nodes, 1)

	f.source.PutFile("data/new.parquet", []byte("x"))

	// A plain expand still serves the cache.
	require.True(t, f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"}))
	f.sched.Run(ctx)
	assert.Len(t, f.rec.expandEvents()[1].Nodes, 1)

	// A refresh rebuilds it.
	require.True(t, f.provider.RefreshNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"}))
	f.sched.Run(ctx)
	assert.Len(t, f.rec.expandEvents()[2].Nodes, 2)
}

func TestRefreshNode_PrunesReplacedOwnerEntries(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)
	ctx := context.Background()

	require.True(t, f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"}))
	f.sched.Run(ctx)

	f.provider.mu.Lock()
	before := len(f.provider.owners)
	f.provider.mu.Unlock()

	for i := 0; i < 5; i++ {
		require.True(t, f.provider.RefreshNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"}))
		f.sched.Run(ctx)
	}

	f.provider.mu.Lock()
	after := len(f.provider.owners)
	f.provider.mu.Unlock()
	assert.Equal(t, before, after, "replaced child IDs must leave the owner index")
}

func TestExplorer_ConcurrentLookupAndRefresh(t *testing.T) {
	source := filesource.NewMemorySource()
	source.PutDir("data")
	source.PutFile("data/events.csv", []byte("a,b\n1,2\n"))

	registry := filesource.NewRegistry()
	registry.RegisterFactory("memory", func(_ filesource.Options) (filesource.Source, error) {
		return source, nil
	})

	rec := &recorder{}
	loop := NewLoop()
	provider := NewProvider(rec,
		WithScheduler(loop),
		WithSourceRegistry(registry),
		WithProtocol("memory"),
	)
	defer func() { _ = provider.Close() }()

	sessionID, err := provider.CreateSession(testShape())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(rec.sessionEvents()) == 1
	}, time.Second, time.Millisecond)
	require.True(t, rec.sessionEvents()[0].Success)

	// Expansions run on the loop goroutine while lookups resolve the same
	// subtree on this one.
	const rounds = 100
	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			provider.RefreshNode(&ExpandInfo{SessionID: sessionID, NodePath: "/HDFS/data"})
		}
	}()

	for i := 0; i < rounds; i++ {
		node, err := provider.FindNodeForContext(ctx, &ExplorerContext{
			Connection: testShape(),
			NodePath:   "/HDFS/data/events.csv",
		})
		require.NoError(t, err)
		require.NotNil(t, node)
	}
	<-done

	require.Eventually(t, func() bool {
		return len(rec.expandEvents()) == rounds
	}, time.Second, time.Millisecond)
	for _, event := range rec.expandEvents() {
		assert.Empty(t, event.ErrorMessage)
	}
}

func TestCloseSession_Idempotent(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)

	first := f.provider.CloseSession(sessionID)
	assert.True(t, first.Success)
	assert.Equal(t, sessionID, first.SessionID)
	assert.Empty(t, f.provider.Sessions())

	second := f.provider.CloseSession(sessionID)
	assert.False(t, second.Success)
	assert.Equal(t, sessionID, second.SessionID)
}

func TestCloseSession_ExpandAfterCloseRejected(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)
	f.provider.CloseSession(sessionID)

	accepted := f.provider.ExpandNode(&ExpandInfo{SessionID: sessionID, NodePath: "/"})
	assert.False(t, accepted)
}

func TestFindNodes_AlwaysEmpty(t *testing.T) {
	f := newFixture(t)
	sessionID := f.createActiveSession(t)

	result := f.provider.FindNodes(FindNodesInfo{SessionID: sessionID, Pattern: "events"})
	require.NotNil(t, result.Nodes)
	assert.Empty(t, result.Nodes)
}

func TestFindNodeForContext_ConnectionNode(t *testing.T) {
	f := newFixture(t)
	f.createActiveSession(t)

	// Same endpoint, different password: descriptor matching ignores it.
	shape := testShape()
	shape.Password = "other"

	node, err := f.provider.FindNodeForContext(context.Background(), &ExplorerContext{
		Connection:       shape,
		IsConnectionNode: true,
	})
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, NodeTypeRoot, node.Info().NodeType)
}

func TestFindNodeForContext_ByPath(t *testing.T) {
	f := newFixture(t)
	f.createActiveSession(t)

	node, err := f.provider.FindNodeForContext(context.Background(), &ExplorerContext{
		Connection: testShape(),
		NodePath:   "/HDFS/data/events.csv",
	})
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.True(t, node.Info().IsLeaf)
	assert.Equal(t, "/HDFS/data/events.csv", node.Path())
}

func TestFindNodeForContext_NoMatch(t *testing.T) {
	f := newFixture(t)
	f.createActiveSession(t)

	shape := testShape()
	shape.Host = "elsewhere"

	node, err := f.provider.FindNodeForContext(context.Background(), &ExplorerContext{
		Connection:       shape,
		IsConnectionNode: true,
	})
	require.NoError(t, err)
	assert.Nil(t, node, "no match is a valid outcome, not an error")
}

func TestNotifyNodeChanged_TriggersRefresh(t *testing.T) {
	f := newFixture(t)
	f.createActiveSession(t)
	ctx := context.Background()

	node, err := f.provider.FindNodeForContext(ctx, &ExplorerContext{
		Connection:       testShape(),
		IsConnectionNode: true,
	})
	require.NoError(t, err)
	require.NotNil(t, node)

	require.NoError(t, f.provider.NotifyNodeChanged(node))
	f.sched.Run(ctx)

	events := f.rec.expandEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "/", events[0].NodePath)
	assert.Len(t, events[0].Nodes, 1)
}

func TestNotifyNodeChanged_UnknownOwner(t *testing.T) {
	f := newFixture(t)
	f.createActiveSession(t)

	orphan := NewRootNode(nil, nil)
	err := f.provider.NotifyNodeChanged(orphan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session owns node")
}
