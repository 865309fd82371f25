package model

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// ChangeEvent is one message of the control plane's change feed.
type ChangeEvent struct {
	Type string   `json:"type"`
	Kind Kind     `json:"kind"`
	IDs  []string `json:"ids"`
}
