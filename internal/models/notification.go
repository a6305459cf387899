package models

import "time"

// Notification types.
const (
	NotificationAnnouncement = "announcement"
	NotificationMessage      = "message"
	NotificationIssue        = "issue"
	NotificationTeam         = "team"
	NotificationChallenge    = "challenge"
	NotificationMessReview   = "mess_review"
	NotificationSystem       = "system"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Link        *string    `json:"link,omitempty"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	ReferenceID *string    `json:"reference_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MarkRead flags the notification as read, keeping the first read time.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead {
		return false
	}
	read := now
	n.IsRead = true
	n.ReadAt = &read
	return true
}

// NotificationStats summarises a user's notifications.
type NotificationStats struct {
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
	ByType map[string]int `json:"by_type"`
}

// StatsOf computes stats over notifications.
func StatsOf(notifications []Notification) NotificationStats {
	stats := NotificationStats{ByType: map[string]int{}}
	for _, n := range notifications {
		stats.Total++
		if !n.IsRead {
			stats.Unread++
		}
		stats.ByType[n.Type]++
	}
	return stats
}
