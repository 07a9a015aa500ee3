package project

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"taskaty/backend/internal/apperror"
	domain "taskaty/backend/internal/domain/project"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

const (
	maxTags      = 20
	maxTagLength = 30
)

// Service encapsulates project use cases. Every operation is scoped to the owner.
type Service struct {
	repo    domain.Repository
	nowFunc func() time.Time
}

// NewService constructs a project service.
func NewService(repo domain.Repository) *Service {
	return &Service{
		repo:    repo,
		nowFunc: time.Now,
	}
}

// CreateInput contains the payload required for project creation.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
}

// Validate checks the create payload.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Length(0, 1000)),
		validation.Field(&in.Status, validation.In(statusValues()...)),
		validation.Field(&in.Priority, validation.In(priorityValues()...)),
		validation.Field(&in.Tags, validation.By(validTags)),
	)
}

// UpdateInput encapsulates partial project updates.
type UpdateInput struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
	Tags         []string   `json:"tags"`
}

// Validate checks the update payload.
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Length(0, 1000)),
		validation.Field(&in.Status, validation.NilOrNotEmpty, validation.In(statusValues()...)),
		validation.Field(&in.Priority, validation.NilOrNotEmpty, validation.In(priorityValues()...)),
		validation.Field(&in.Tags, validation.By(validTags)),
	)
}

// Create stores a new project after validation.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Project, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Tags = cleanTags(input.Tags)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	status := domain.Status(input.Status)
	if status == "" {
		status = domain.StatusActive
	}
	priority := domain.Priority(input.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := s.nowFunc().UTC()
	project := &domain.Project{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     utcPtr(input.DueDate),
		Tags:        input.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if project.Tags == nil {
		project.Tags = []string{}
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListResult is one page of projects plus the projection to apply.
type ListResult struct {
	Projects []*domain.Project
	Page     int
	Limit    int
	Fields   []string
}

// List retrieves the owner's projects according to the query string.
func (s *Service) List(ctx context.Context, ownerID string, values url.Values) (*ListResult, error) {
	q, err := ParseQuery(values)
	if err != nil {
		return nil, err
	}

	query := q.ListQuery
	query.OwnerID = ownerID
	projects, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	return &ListResult{Projects: projects, Page: q.Page, Limit: q.ListQuery.Limit, Fields: q.Fields}, nil
}

// Get fetches a project by id.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.New(apperror.KindTypeMismatch, apperror.Detail{Field: "id", Value: id, Message: "must be a valid UUID"})
	}
	project, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return project, nil
}

// Update applies partial updates to a project.
func (s *Service) Update(ctx context.Context, ownerID, id string, input UpdateInput) (*domain.Project, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}
	input.Tags = cleanTags(input.Tags)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	project, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	changes := domain.Changes{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     utcPtr(input.DueDate),
		ClearDue:    input.ClearDueDate,
		Tags:        input.Tags,
	}
	if input.Status != nil {
		status := domain.Status(*input.Status)
		changes.Status = &status
	}
	if input.Priority != nil {
		priority := domain.Priority(*input.Priority)
		changes.Priority = &priority
	}
	project.Apply(changes, s.nowFunc().UTC())

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, mapNotFound(err)
	}
	return project, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return apperror.New(apperror.KindTypeMismatch, apperror.Detail{Field: "id", Value: id, Message: "must be a valid UUID"})
	}
	return mapNotFound(s.repo.Delete(ctx, ownerID, id))
}

func mapNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.New(apperror.KindResourceNotFound).WithMessage("No project found with that ID")
	}
	return err
}

func statusValues() []interface{} {
	out := make([]interface{}, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out = append(out, string(s))
	}
	return out
}

func priorityValues() []interface{} {
	out := make([]interface{}, 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		out = append(out, string(p))
	}
	return out
}

func validTags(value interface{}) error {
	tags, _ := value.([]string)
	if len(tags) > maxTags {
		return errors.New("at most 20 tags are allowed")
	}
	for _, tag := range tags {
		if len(tag) > maxTagLength {
			return errors.New("each tag must be at most 30 characters")
		}
	}
	return nil
}

// cleanTags trims, drops blanks and de-duplicates while keeping order.
func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
