package models

import (
	"strings"
	"time"
)

type Announcement struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Target is a block ("Block A"); empty means everyone.
	Target     string    `json:"target,omitempty"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AnnouncementComment struct {
	ID             string    `json:"id"`
	AnnouncementID string    `json:"announcementId"`
	AuthorID       string    `json:"authorId"`
	AuthorName     string    `json:"authorName,omitempty"`
	AuthorRole     Role      `json:"authorRole,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// BlockTarget is the announcement target string for a profile's block.
func BlockTarget(block string) string {
	block = strings.TrimSpace(block)
	if block == "" {
		return ""
	}
	return "Block " + block
}
