// Package model defines the shared data types exchanged with the Holy Grail backend.
package model

import (
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// maxTitleLen is the maximum allowed length for resource titles in characters.
	maxTitleLen = 255
)

// ResourceStatus is the moderation state of an uploaded resource.
type ResourceStatus string

const (
	ResourceStatusPending  ResourceStatus = "pending"
	ResourceStatusApproved ResourceStatus = "approved"
	ResourceStatusRejected ResourceStatus = "rejected"
)

// Resource is a piece of study material known to the backend.
type Resource struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Subject   string         `json:"subject"`
	Filename  string         `json:"filename"`
	Status    ResourceStatus `json:"status"`
	Uploader  string         `json:"uploader"`
	CreatedAt time.Time      `json:"created_at"`
}

// UploadInput describes a file upload. Content is streamed as multipart form data.
type UploadInput struct {
	Title       string
	Subject     string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Validate validates the UploadInput fields.
func (u *UploadInput) Validate() error {
	if strings.TrimSpace(u.Title) == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(u.Title) > maxTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if strings.TrimSpace(u.Filename) == "" {
		return errors.New("filename is required")
	}
	if u.Content == nil {
		return errors.New("content is required")
	}
	return nil
}

// LeaderboardEntry is one row of the contributor leaderboard.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	Uploads   int    `json:"uploads"`
	Downloads int    `json:"downloads"`
}
