package project

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskaty/backend/internal/apperror"
	domain "taskaty/backend/internal/domain/project"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
	// MaxPage keeps the row offset far from integer overflow.
	MaxPage = 100000
)

// reserved query keys that never act as filters.
const (
	keyPage   = "page"
	keySort   = "sort"
	keyLimit  = "limit"
	keyFields = "fields"
)

var filterKey = regexp.MustCompile(`^(\w+)(?:\[(gte|gt|lte|lt)\])?$`)

var rangeFields = map[string]struct{}{
	domain.FieldDueDate:   {},
	domain.FieldCreatedAt: {},
	domain.FieldUpdatedAt: {},
}

var sortFields = map[string]struct{}{
	domain.FieldTitle:     {},
	domain.FieldStatus:    {},
	domain.FieldPriority:  {},
	domain.FieldDueDate:   {},
	domain.FieldCreatedAt: {},
	domain.FieldUpdatedAt: {},
}

// selectors project a single JSON field out of a project.
var selectors = map[string]func(*domain.Project) any{
	"id":          func(p *domain.Project) any { return p.ID },
	"ownerId":     func(p *domain.Project) any { return p.OwnerID },
	"title":       func(p *domain.Project) any { return p.Title },
	"description": func(p *domain.Project) any { return p.Description },
	"status":      func(p *domain.Project) any { return p.Status },
	"priority":    func(p *domain.Project) any { return p.Priority },
	"dueDate":     func(p *domain.Project) any { return p.DueDate },
	"tags":        func(p *domain.Project) any { return p.Tags },
	"createdAt":   func(p *domain.Project) any { return p.CreatedAt },
	"updatedAt":   func(p *domain.Project) any { return p.UpdatedAt },
}

// Query is a parsed listing request.
type Query struct {
	domain.ListQuery
	Page   int
	Fields []string
}

// ParseQuery turns a query string into a listing request. Supported keys:
//
//	status=active&priority=high        equality filters
//	dueDate[gte]=2026-01-01            range filters on dueDate, createdAt, updatedAt
//	sort=priority,-createdAt           ordering, "-" for descending
//	page=2&limit=20                    paging
//	fields=title,status                projection
func ParseQuery(values url.Values) (*Query, error) {
	q := &Query{Page: 1}
	q.Limit = DefaultLimit

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := strings.TrimSpace(values.Get(key))
		switch key {
		case keyPage:
			page, err := positiveInt(key, raw)
			if err != nil {
				return nil, err
			}
			if page > MaxPage {
				return nil, apperror.New(apperror.KindInvalidInput, apperror.Detail{
					Field: key, Value: raw, Message: fmt.Sprintf("must be at most %d", MaxPage),
				})
			}
			q.Page = page
		case keyLimit:
			limit, err := positiveInt(key, raw)
			if err != nil {
				return nil, err
			}
			if limit > MaxLimit {
				limit = MaxLimit
			}
			q.Limit = limit
		case keySort:
			order, err := parseSort(raw)
			if err != nil {
				return nil, err
			}
			q.Sort = order
		case keyFields:
			fields, err := parseFields(raw)
			if err != nil {
				return nil, err
			}
			q.Fields = fields
		default:
			if err := q.addFilter(key, raw); err != nil {
				return nil, err
			}
		}
	}

	if len(q.Sort) == 0 {
		q.Sort = []domain.SortKey{{Field: domain.FieldCreatedAt, Desc: true}}
	}
	q.Offset = (q.Page - 1) * q.Limit
	return q, nil
}

func (q *Query) addFilter(key, raw string) error {
	m := filterKey.FindStringSubmatch(key)
	if m == nil {
		return unsupported(key)
	}
	field, op := m[1], m[2]

	if op != "" {
		if _, ok := rangeFields[field]; !ok {
			return unsupported(key)
		}
		at, err := parseTime(raw)
		if err != nil {
			return apperror.New(apperror.KindTypeMismatch, apperror.Detail{Field: key, Value: raw, Message: "must be an RFC 3339 timestamp or a YYYY-MM-DD date"})
		}
		q.Ranges = append(q.Ranges, domain.RangeFilter{Field: field, Op: domain.RangeOp(op), Value: at})
		return nil
	}

	switch field {
	case domain.FieldStatus:
		status := domain.Status(strings.ToLower(raw))
		if !contains(domain.Statuses, status) {
			return apperror.New(apperror.KindInvalidInput, apperror.Detail{Field: key, Value: raw, Message: "must be one of active, archived, completed"})
		}
		q.Status = &status
	case domain.FieldPriority:
		priority := domain.Priority(strings.ToLower(raw))
		if !contains(domain.Priorities, priority) {
			return apperror.New(apperror.KindInvalidInput, apperror.Detail{Field: key, Value: raw, Message: "must be one of low, medium, high"})
		}
		q.Priority = &priority
	default:
		return unsupported(key)
	}
	return nil
}

func parseSort(raw string) ([]domain.SortKey, error) {
	var keys []domain.SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := domain.SortKey{Field: part}
		if strings.HasPrefix(part, "-") {
			key = domain.SortKey{Field: part[1:], Desc: true}
		}
		if _, ok := sortFields[key.Field]; !ok {
			return nil, apperror.New(apperror.KindInvalidInput, apperror.Detail{Field: keySort, Value: part, Message: "unsupported sort field"})
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func parseFields(raw string) ([]string, error) {
	fields := []string{"id"}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "id" {
			continue
		}
		if _, ok := selectors[part]; !ok {
			return nil, apperror.New(apperror.KindInvalidInput, apperror.Detail{Field: keyFields, Value: part, Message: "unknown field"})
		}
		fields = append(fields, part)
	}
	if len(fields) == 1 {
		return nil, nil
	}
	return fields, nil
}

// Select projects p onto fields. A nil field list returns the whole project.
func Select(p *domain.Project, fields []string) any {
	if len(fields) == 0 {
		return p
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if sel, ok := selectors[f]; ok {
			out[f] = sel(p)
		}
	}
	return out
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

func positiveInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.New(apperror.KindTypeMismatch, apperror.Detail{Field: key, Value: raw, Message: "must be an integer"})
	}
	if n < 1 {
		return 0, apperror.New(apperror.KindInvalidInput, apperror.Detail{Field: key, Value: raw, Message: "must be at least 1"})
	}
	return n, nil
}

func unsupported(key string) error {
	return apperror.New(apperror.KindInvalidInput, apperror.Detail{Field: key, Message: "unsupported query parameter"})
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
