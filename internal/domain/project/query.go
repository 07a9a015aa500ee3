package project

import "time"

// Field names accepted by list queries. They match the JSON names.
const (
	FieldTitle     = "title"
	FieldStatus    = "status"
	FieldPriority  = "priority"
	FieldDueDate   = "dueDate"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// RangeOp is a comparison applied by a RangeFilter.
type RangeOp string

const (
	OpGTE RangeOp = "gte"
	OpGT  RangeOp = "gt"
	OpLTE RangeOp = "lte"
	OpLT  RangeOp = "lt"
)

// RangeFilter bounds a time field.
type RangeFilter struct {
	Field string
	Op    RangeOp
	Value time.Time
}

// SortKey orders results by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// ListQuery narrows and pages a project listing. OwnerID is always applied.
type ListQuery struct {
	OwnerID  string
	Status   *Status
	Priority *Priority
	Ranges   []RangeFilter
	Sort     []SortKey
	Limit    int
	Offset   int
}
