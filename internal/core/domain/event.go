package domain

import "time"

// Event is the notification record emitted on every state-machine transition
// and per-task dispatch outcome. Delivery is at-least-once and ordered per
// mission; transport is the notifier adapter's concern.
type Event struct {
	MissionID string            `json:"missionId"`
	Step      string            `json:"step"`
	Wave      int               `json:"wave"`
	TaskID    string            `json:"taskId,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	At        time.Time         `json:"at"`
}
