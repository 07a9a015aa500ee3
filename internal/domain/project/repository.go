package project

import "context"

// Repository defines persistence behaviours for projects. Lookups are scoped
// to an owner so one user can never reach another user's projects.
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, ownerID, id string) (*Project, error)
	List(ctx context.Context, query ListQuery) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, ownerID, id string) error
}
