package models

import "time"

// Event types
const (
	EventTypeAnnouncementLiked = "ANNOUNCEMENT_LIKED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AnnouncementLikedEvent published when a visitor likes an announcement
type AnnouncementLikedEvent struct {
	BaseEvent
	AnnouncementID string `json:"announcement_id"`
	VisitorID      string `json:"visitor_id"`
}
