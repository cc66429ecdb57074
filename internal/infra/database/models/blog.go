package models

import (
	"time"

	"github.com/lib/pq"
)

// Blog is the persisted form of a post. The unique index on slug is the
// source of truth for slug uniqueness under concurrent creates.
type Blog struct {
	ID        string         `json:"id" gorm:"primaryKey;type:text"`
	Slug      string         `json:"slug" gorm:"type:text;uniqueIndex:blog_slug"`
	Title     string         `json:"title" gorm:"type:text"`
	Content   string         `json:"content" gorm:"type:text"`
	Tags      pq.StringArray `json:"tags" gorm:"type:text[]"`
	Published time.Time      `json:"published" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}
