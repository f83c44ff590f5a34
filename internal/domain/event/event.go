package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeTaskCreated    Type = "task_created"
	TypeTaskAssigned   Type = "task_assigned"
	TypeTaskCompleted  Type = "task_completed"
	TypeTaskCancelled  Type = "task_cancelled"
	TypeTaskReassigned Type = "task_reassigned"
	TypeAgentCreated   Type = "agent_created"
	TypeAgentUpdated   Type = "agent_updated"
	TypeAgentDeleted   Type = "agent_deleted"
	TypeRefresh        Type = "refresh"
)

// Channel is a table-scoped change channel. All event types of one table share
// one LISTEN connection.
type Channel string

const (
	ChannelTask  Channel = "task"
	ChannelAgent Channel = "agent"
)

var typeToChannel = map[Type]Channel{
	TypeTaskCreated:    ChannelTask,
	TypeTaskAssigned:   ChannelTask,
	TypeTaskCompleted:  ChannelTask,
	TypeTaskCancelled:  ChannelTask,
	TypeTaskReassigned: ChannelTask,
	TypeRefresh:        ChannelTask,
	TypeAgentCreated:   ChannelAgent,
	TypeAgentUpdated:   ChannelAgent,
	TypeAgentDeleted:   ChannelAgent,
}

// ChannelFor returns the table channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Subscribers reload the snapshot from the repositories.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID int64) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
