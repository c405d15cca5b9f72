package models

import "time"

type MessageType string

const (
	MessageTypeMotd         MessageType = "motd"
	MessageTypeNotification MessageType = "notification"
	MessageTypeMaintenance  MessageType = "maintenance"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeMotd, MessageTypeNotification, MessageTypeMaintenance:
		return true
	}
	return false
}

type UserMessage struct {
	ID       int64
	UserID   string
	Type     MessageType
	Message  string
	DateTime time.Time
}

// SystemMessage bodies are stored verbatim; consumers render them as plain text.
type SystemMessage struct {
	ID       int64
	Type     MessageType
	Message  string
	DateTime time.Time
}
