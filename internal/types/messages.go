package types

import "time"

// ChangeOp names the mutation that produced a change notification
type ChangeOp string

const (
	ChangeCreated  ChangeOp = "create"
	ChangeReplaced ChangeOp = "replace"
	ChangeStatus   ChangeOp = "status"
	ChangeDeleted  ChangeOp = "delete"
)

// ChangeMessageType is the websocket message type for record changes
const ChangeMessageType = "records_changed"

// ChangeMessage is broadcast to websocket subscribers after every mutation
type ChangeMessage struct {
	Type      string    `json:"type"`
	Op        ChangeOp  `json:"op"`
	ID        RecordID  `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage builds a change message stamped with the current time
func NewChangeMessage(op ChangeOp, id RecordID) ChangeMessage {
	return ChangeMessage{
		Type:      ChangeMessageType,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}
