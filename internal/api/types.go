package api

import (
	"encoding/json"
	"strings"
	"time"
)

// Response is the envelope every request resolves to. Transport failures and
// HTTP error statuses produce Success=false with at least one error message.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// Err converts an unsuccessful response into an error.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	return &ResponseError{Messages: r.Errors}
}

// ResponseError carries the server's (or transport's) error messages.
type ResponseError struct {
	Messages []string
}

func (e *ResponseError) Error() string {
	if len(e.Messages) == 0 {
		return "request failed"
	}
	return strings.Join(e.Messages, "; ")
}

// ProjectSummary is one entry of /api/projects.
type ProjectSummary struct {
	Name       string `json:"name"`
	ImageCount int    `json:"imageCount"`
	UpdatedAt  string `json:"updatedAt"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (p ProjectSummary) ParsedUpdatedAt() time.Time {
	return parseTime(p.UpdatedAt)
}

// ProjectListResponse mirrors /api/projects.
type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

// ImageListResponse mirrors /api/projects/{project}/images.
type ImageListResponse struct {
	Images []string `json:"images"`
}

// Category groups the tags a project offers under one heading.
type Category struct {
	Name  string   `json:"name"`
	Color string   `json:"color,omitempty"`
	Tags  []string `json:"tags"`
}

// CategoryListResponse mirrors /api/projects/{project}/categories.
type CategoryListResponse struct {
	Categories []Category `json:"categories"`
}

// TagsPayload is both the response and request body of the tags endpoint.
type TagsPayload struct {
	Tags []string `json:"tags"`
}

// Suggestion is one model-proposed tag from the autotag stream.
type Suggestion struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// Event is one server-sent event.
type Event struct {
	ID   string
	Type string
	Data string
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
