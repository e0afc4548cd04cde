// Package notification holds the notices the API sends to users (approvals, events).
package notification

import "time"

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Unread counts the unread notifications of ns.
func Unread(ns []Notification) int {
	var n int
	for _, ntf := range ns {
		if !ntf.IsRead {
			n++
		}
	}
	return n
}
