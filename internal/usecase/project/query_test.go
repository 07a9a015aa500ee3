package project

import (
	"net/url"
	"testing"
	"time"

	"taskaty/backend/internal/apperror"
	domain "taskaty/backend/internal/domain/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_Defaults(t *testing.T) {
	q, err := ParseQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, []domain.SortKey{{Field: domain.FieldCreatedAt, Desc: true}}, q.Sort)
	assert.Nil(t, q.Fields)
}

func TestParseQuery_FiltersAndRanges(t *testing.T) {
	values, err := url.ParseQuery("status=archived&priority=HIGH&dueDate[gte]=2026-01-01&createdAt[lt]=2026-02-01T10:00:00Z")
	require.NoError(t, err)

	q, err := ParseQuery(values)
	require.NoError(t, err)

	require.NotNil(t, q.Status)
	assert.Equal(t, domain.StatusArchived, *q.Status)
	require.NotNil(t, q.Priority)
	assert.Equal(t, domain.PriorityHigh, *q.Priority)

	assert.ElementsMatch(t, []domain.RangeFilter{
		{Field: domain.FieldCreatedAt, Op: domain.OpLT, Value: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)},
		{Field: domain.FieldDueDate, Op: domain.OpGTE, Value: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, q.Ranges)
}

func TestParseQuery_SortAndPaging(t *testing.T) {
	q, err := ParseQuery(url.Values{"sort": {"priority,-dueDate"}, "page": {"3"}, "limit": {"500"}})
	require.NoError(t, err)

	assert.Equal(t, []domain.SortKey{
		{Field: domain.FieldPriority},
		{Field: domain.FieldDueDate, Desc: true},
	}, q.Sort)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, 200, q.Offset)
}

func TestParseQuery_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		query string
		kind  apperror.Kind
	}{
		{"unknown filter", "ownerId=x", apperror.KindInvalidInput},
		{"range on equality field", "status[gt]=active", apperror.KindInvalidInput},
		{"bad status", "status=paused", apperror.KindInvalidInput},
		{"bad date", "dueDate[lt]=tomorrow", apperror.KindTypeMismatch},
		{"bad page", "page=two", apperror.KindTypeMismatch},
		{"zero limit", "limit=0", apperror.KindInvalidInput},
		{"page past the last allowed", "page=100001", apperror.KindInvalidInput},
		{"page that would overflow the offset", "page=9223372036854775807", apperror.KindInvalidInput},
		{"unknown sort", "sort=password", apperror.KindInvalidInput},
		{"unknown field", "fields=title,secret", apperror.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			_, err = ParseQuery(values)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.Normalize(err).Kind())
		})
	}
}

func TestParseQuery_LastAllowedPage(t *testing.T) {
	q, err := ParseQuery(url.Values{"page": {"100000"}, "limit": {"100"}})
	require.NoError(t, err)
	assert.Equal(t, 9999900, q.Offset)
}

func TestSelect(t *testing.T) {
	p := &domain.Project{ID: "p1", Title: "Launch", Status: domain.StatusActive}

	assert.Same(t, p, Select(p, nil))
	assert.Equal(t, map[string]any{"id": "p1", "title": "Launch"}, Select(p, []string{"id", "title"}))
}
