package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Tables whose rows are published on the change feed.
const (
	TableTasks         = "tasks"
	TableNotifications = "notifications"
)

// Event is one row change as emitted by notify_row_change.
type Event struct {
	Table     string          `json:"table"`
	Type      string          `json:"type"`
	UserID    uuid.UUID       `json:"user_id"`
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
	Truncated bool            `json:"truncated,omitempty"`
}

// Decode parses a NOTIFY payload.
func Decode(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if ev.Table == "" || ev.UserID == uuid.Nil {
		return Event{}, fmt.Errorf("decode change event: missing table or user_id")
	}
	return ev, nil
}

// ValidTable reports whether name is a table on the change feed.
func ValidTable(name string) bool {
	return name == TableTasks || name == TableNotifications
}
