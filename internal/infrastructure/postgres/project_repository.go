package postgres

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	domain "taskaty/backend/internal/domain/project"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
)

const projectColumns = `id, owner_id, title, description, status, priority, due_date, tags, created_at, updated_at`

// sortable and filterable fields mapped to their columns.
var projectFieldColumns = map[string]string{
	domain.FieldTitle:     "title",
	domain.FieldStatus:    "status",
	domain.FieldPriority:  "priority",
	domain.FieldDueDate:   "due_date",
	domain.FieldCreatedAt: "created_at",
	domain.FieldUpdatedAt: "updated_at",
}

var rangeOperators = map[domain.RangeOp]string{
	domain.OpGTE: ">=",
	domain.OpGT:  ">",
	domain.OpLTE: "<=",
	domain.OpLT:  "<",
}

// ProjectRepository persists projects in PostgreSQL.
type ProjectRepository struct {
	db DBTX
}

// NewProjectRepository constructs a repository.
func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

var _ domain.Repository = (*ProjectRepository)(nil)

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
INSERT INTO projects (id, owner_id, title, description, status, priority, due_date, tags, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err := r.db.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Title,
		project.Description,
		string(project.Status),
		string(project.Priority),
		project.DueDate,
		tagsOrEmpty(project.Tags),
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// GetByID fetches a project owned by ownerID.
func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_id = $2`
	project, err := scanProject(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return project, nil
}

// List returns the owner's projects narrowed, ordered and paged by q.
func (r *ProjectRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.Project, error) {
	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return projects, nil
}

func buildListQuery(q domain.ListQuery) (string, []any, error) {
	var (
		sb   strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + projectColumns + ` FROM projects WHERE owner_id = ` + arg(q.OwnerID))
	if q.Status != nil {
		sb.WriteString(` AND status = ` + arg(string(*q.Status)))
	}
	if q.Priority != nil {
		sb.WriteString(` AND priority = ` + arg(string(*q.Priority)))
	}
	for _, rf := range q.Ranges {
		column, ok := projectFieldColumns[rf.Field]
		if !ok {
			return "", nil, errors.Errorf("unsupported filter field %q", rf.Field)
		}
		op, ok := rangeOperators[rf.Op]
		if !ok {
			return "", nil, errors.Errorf("unsupported range operator %q", rf.Op)
		}
		sb.WriteString(` AND ` + column + ` ` + op + ` ` + arg(rf.Value))
	}

	sb.WriteString(` ORDER BY `)
	if len(q.Sort) == 0 {
		sb.WriteString(`created_at DESC, `)
	}
	for _, key := range q.Sort {
		column, ok := projectFieldColumns[key.Field]
		if !ok {
			return "", nil, errors.Errorf("unsupported sort field %q", key.Field)
		}
		direction := "ASC"
		if key.Desc {
			direction = "DESC"
		}
		sb.WriteString(column + ` ` + direction + `, `)
	}
	sb.WriteString(`id ASC`)

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ` + arg(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString(` OFFSET ` + arg(q.Offset))
	}
	return sb.String(), args, nil
}

// Update writes project updates to the database.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
UPDATE projects
SET title = $3,
    description = $4,
    status = $5,
    priority = $6,
    due_date = $7,
    tags = $8,
    updated_at = $9
WHERE id = $1 AND owner_id = $2
`
	tag, err := r.db.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Title,
		project.Description,
		string(project.Status),
		string(project.Priority),
		project.DueDate,
		tagsOrEmpty(project.Tags),
		project.UpdatedAt,
	)
	if err != nil {
		return errors.WithStack(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a project owned by ownerID.
func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id string) error {
	const query = `DELETE FROM projects WHERE id = $1 AND owner_id = $2`
	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return errors.WithStack(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p                domain.Project
		status, priority string
		due              pgtype.Timestamptz
	)
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Description,
		&status,
		&priority,
		&due,
		&p.Tags,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.Status(status)
	p.Priority = domain.Priority(priority)
	p.DueDate = timestamptzPtr(due)
	p.Tags = tagsOrEmpty(p.Tags)
	return &p, nil
}
