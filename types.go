package portfolio

import (
	"time"
)

// BlogPost is the wire representation of a post, shared by the server
// handlers and the admin client.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published time.Time `json:"published"`
	Slug      string    `json:"slug"`
	Tags      []string  `json:"tags,omitempty"`
}

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Event notifies subscribers that a post changed. Post is nil for
// deletions.
type Event struct {
	Type string    `json:"type"`
	Slug string    `json:"slug"`
	Post *BlogPost `json:"post,omitempty"`
}
