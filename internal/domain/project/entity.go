package project

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a project could not be located for its owner.
	ErrNotFound = errors.New("project not found")
)

// Status tracks the lifecycle of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusArchived  Status = "archived"
	StatusCompleted Status = "completed"
)

// Statuses lists every accepted status.
var Statuses = []Status{StatusActive, StatusArchived, StatusCompleted}

// Priority ranks projects.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every accepted priority.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Project captures a unit of work owned by a single user.
type Project struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Changes holds optional field updates. Nil fields are left unchanged.
type Changes struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	ClearDue    bool
	Tags        []string
}

// Apply writes the changes onto the project and stamps UpdatedAt.
func (p *Project) Apply(c Changes, now time.Time) {
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
	if c.Priority != nil {
		p.Priority = *c.Priority
	}
	if c.ClearDue {
		p.DueDate = nil
	} else if c.DueDate != nil {
		due := *c.DueDate
		p.DueDate = &due
	}
	if c.Tags != nil {
		p.Tags = append([]string(nil), c.Tags...)
	}
	p.UpdatedAt = now
}
