package constants

// EventKind identifies a lifecycle notification emitted after a record mutation commits.
type EventKind string

const (
	EventRequestCreated  EventKind = "REQUEST_CREATED"
	EventRequestApproved EventKind = "REQUEST_APPROVED"
	EventRequestRejected EventKind = "REQUEST_REJECTED"
)

// Redis stream carrying lifecycle events to the notification bot.
const (
	EventStreamName    = "experience:events"
	EventConsumerGroup = "notifiers"
)

// History actions recorded against an experience record.
const (
	HistoryRequestSubmitted = "Initial Request Submission"
	HistoryApproved         = "Approved"
	HistoryEdited           = "Edited"
	HistoryEndDateUpdated   = "End Date Updated"
	HistoryPinned           = "Pinned"
	HistoryUnpinned         = "Unpinned"
)
