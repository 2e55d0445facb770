package core

// SessionID is the opaque handle of one live connection.
type SessionID string

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}
