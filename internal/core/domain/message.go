package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderBot   Sender = "bot"
	SenderAgent Sender = "agent"
)

// TombstoneText replaces the content of a soft-deleted message.
const TombstoneText = "This message was deleted"

// EditedMarker is shown next to messages that were edited and not deleted.
const EditedMarker = "Edited"

// Message is a chat message as stored by the backend.
type Message struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	Sender    Sender     `json:"sender"`
	Timestamp time.Time  `json:"timestamp"`
	UserID    int64      `json:"user_id,omitempty"`
	DeletedAt *time.Time `json:"deleted_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	// Older backends report edits and deletions as flags instead of timestamps.
	Edited  bool `json:"edited,omitempty"`
	Deleted bool `json:"deleted,omitempty"`
}

// IsDeleted reports whether the message is a tombstone.
func (m Message) IsDeleted() bool {
	return m.DeletedAt != nil || m.Deleted
}

// IsEdited reports whether the "Edited" indicator applies. Tombstones never
// show it.
func (m Message) IsEdited() bool {
	if m.IsDeleted() {
		return false
	}
	return m.UpdatedAt != nil || m.Edited
}

// Modifiable reports whether edit and delete actions are available.
func (m Message) Modifiable() bool {
	return m.Sender == SenderUser && !m.IsDeleted()
}

// DisplayContent returns the text a view should render for the message.
func (m Message) DisplayContent() string {
	if m.IsDeleted() {
		return TombstoneText
	}
	return m.Content
}

// TemporaryMessage is the optimistic placeholder shown while a send is in
// flight. It has no server identity and is never persisted.
type TemporaryMessage struct {
	TempID    uuid.UUID
	Content   string
	Sender    Sender
	Timestamp time.Time
}

// Entry is one row of the message list: either Confirmed or Pending.
type Entry interface {
	isEntry()
}

// Confirmed wraps a message acknowledged by the backend.
type Confirmed struct {
	Message
}

// Pending wraps a temporary message awaiting the backend.
type Pending struct {
	TemporaryMessage
}

func (Confirmed) isEntry() {}
func (Pending) isEntry()   {}
