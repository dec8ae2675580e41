package event_bus

// Persistence health events published by the session layer. The durable
// store can fall behind the in-memory state after a failed save; these
// events let the app layer expose that divergence without the session
// package knowing about HTTP.
const (
	// SessionSaveFailed is published when a durable save fails after an
	// in-memory mutation has already been applied.
	SessionSaveFailed EventType = "session.save_failed"
	// SessionSaveRecovered is published when a later save succeeds and
	// durable state matches memory again.
	SessionSaveRecovered EventType = "session.save_recovered"
)

// SaveStatus is the payload of the persistence health events.
type SaveStatus struct {
	UserID string
	Err    error
}
