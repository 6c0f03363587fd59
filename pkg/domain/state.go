package domain

import "time"

// Snapshot is the serializable image of a conversation between turns.
type Snapshot struct {
	SessionID  string            `json:"session_id"`
	CustomerID string            `json:"customer_id,omitempty"`
	Inputs     *History[string]  `json:"inputs"`
	Requests   *History[string]  `json:"requests"`
	Responses  *History[string]  `json:"responses"`
	Thats      *NestedHistory    `json:"thats"`
	Predicates map[string]string `json:"predicates"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot with histories of the given capacity.
func NewSnapshot(sessionID string, capacity int) *Snapshot {
	return &Snapshot{
		SessionID:  sessionID,
		Inputs:     NewHistory[string](capacity, "input"),
		Requests:   NewHistory[string](capacity, "request"),
		Responses:  NewHistory[string](capacity, "response"),
		Thats:      NewHistory[*History[string]](capacity, "that"),
		Predicates: make(map[string]string),
	}
}
