// Package notifyhub is an optional local status-push channel: GUI shells
// that embed this runtime can watch job and account lifecycle events over
// a plain WebSocket without polling the gRPC surface. It supplements
// spec.md, which treats all GUI-facing concerns as external, and does not
// change the ProviderService/RegistryService wire contract — a client that
// never connects here loses nothing. No other package in this module
// constructs a Hub or publishes the events below; whoever embeds the Hub
// calls Publish.
//
// Topic naming convention:
//
//	account:<account_id>  — an account's session coming online/going idle
//	job:<job_id>           — an upload or download job's progress/terminal state
package notifyhub

// EventType identifies the kind of event carried by an Event.
type EventType string

const (
	// EventAccountOnline reports that a Server has bound an account's
	// ProviderInterface at startup.
	EventAccountOnline EventType = "account.online"

	// EventAccountIdle reports that an account's InactivityTimer reached
	// zero in-flight requests and its timeout elapsed.
	EventAccountIdle EventType = "account.idle"

	// EventJobProgress reports bytes transferred by an
	// UploadJob/DownloadJob.
	EventJobProgress EventType = "job.progress"

	// EventJobDone reports that a job reached its Done terminal state,
	// successfully or not.
	EventJobDone EventType = "job.done"

	// EventPing is sent periodically so a client can detect a stale
	// connection without application traffic.
	EventPing EventType = "ping"
)

// Event is the envelope for every frame sent to a connected client.
type Event struct {
	Type    EventType `json:"type"`
	Topic   string    `json:"topic"`
	Payload any       `json:"payload"`
}
