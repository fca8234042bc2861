package explorer

// SessionResult is the payload of the session-created event. It is emitted
// at most once per CreateSession call and never from the call's own stack;
// construction skipped for an already registered key emits nothing.
type SessionResult struct {
	Success      bool      `json:"success"`
	SessionID    string    `json:"sessionId"`
	RootNode     *NodeInfo `json:"rootNode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// ExpandResult is the payload of the expansion-complete event. It is
// emitted exactly once per ExpandNode call, including rejected ones.
type ExpandResult struct {
	SessionID    string     `json:"sessionId"`
	NodePath     string     `json:"nodePath"`
	Nodes        []NodeInfo `json:"nodes,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// Notifier receives the provider's outbound events. Implementations adapt
// them to the host UI channel; calls arrive from the scheduler, never from
// the provider's synchronous API.
type Notifier interface {
	SessionCreated(result SessionResult)
	ExpandCompleted(result ExpandResult)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// SessionCreated discards the event.
func (NopNotifier) SessionCreated(SessionResult) {}

// ExpandCompleted discards the event.
func (NopNotifier) ExpandCompleted(ExpandResult) {}

// Verify interface compliance.
var _ Notifier = NopNotifier{}
