package kafka

import "time"

// NotificationEvent is the payload published to the notification topic when a
// conversation transition needs to reach a lawyer. The delivery side (email,
// push) consumes this stream; the core only emits it.
type NotificationEvent struct {
	NotificationID   string    `json:"notification_id"`
	NotificationType string    `json:"notification_type"` // new_case, new_message, case_assigned, case_closed, reminder
	Channel          string    `json:"channel"`
	LawyerID         string    `json:"lawyer_id"`
	ConversationID   string    `json:"conversation_id,omitempty"`
	PlatformID       string    `json:"platform_id,omitempty"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
}
