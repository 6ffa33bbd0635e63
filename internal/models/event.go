package models

// Post event operations.
const (
	PostCreated = "created"
	PostUpdated = "updated"
	PostDeleted = "deleted"
)

// PostEvent describes a change to a post published to the message broker.
type PostEvent struct {
	EventID   string `json:"event_id"`  // Unique identifier of the event
	Timestamp int64  `json:"timestamp"` // Unix timestamp (seconds) of the change
	PostID    int64  `json:"post_id"`   // Affected post
	UserID    int64  `json:"user_id"`   // Acting user, always the owner
	Operation string `json:"operation"` // One of PostCreated, PostUpdated, PostDeleted
	Title     string `json:"title,omitempty"`
}
