package repo

import (
	"time"

	"github.com/quickavail/backend/internal/domain"
)

// field names the logical schedule attribute a predicate constrains.
// Each backend maps it onto its own column or document path.
type field int

const (
	fieldExpiresAt field = iota
	fieldCreatedAt
	fieldViewCount
)

// op is a comparison operator.
type op int

const (
	opLT op = iota
	opGT
	opGTE
	opLTE
)

// predicate is one comparison of a filter. Value is a time.Time for the
// timestamp fields and an int for the view count.
type predicate struct {
	field field
	op    op
	value any
}

// predicates flattens a filter into backend-neutral comparisons, in a fixed
// order so generated queries are stable.
func predicates(f domain.ScheduleFilter) []predicate {
	var out []predicate
	if !f.ExpiresBefore.IsZero() {
		out = append(out, predicate{fieldExpiresAt, opLT, f.ExpiresBefore.UTC()})
	}
	if !f.ExpiresAfter.IsZero() {
		out = append(out, predicate{fieldExpiresAt, opGT, f.ExpiresAfter.UTC()})
	}
	if !f.CreatedBefore.IsZero() {
		out = append(out, predicate{fieldCreatedAt, opLT, f.CreatedBefore.UTC()})
	}
	if !f.CreatedSince.IsZero() {
		out = append(out, predicate{fieldCreatedAt, opGTE, f.CreatedSince.UTC()})
	}
	if f.MaxViews != nil {
		out = append(out, predicate{fieldViewCount, opLTE, *f.MaxViews})
	}
	return out
}

// sqlColumn returns the column name shared by the Postgres and SQLite schemas.
func (f field) sqlColumn() string {
	switch f {
	case fieldExpiresAt:
		return "expires_at"
	case fieldCreatedAt:
		return "created_at"
	default:
		return "view_count"
	}
}

func (o op) sql() string {
	switch o {
	case opLT:
		return "<"
	case opGT:
		return ">"
	case opGTE:
		return ">="
	default:
		return "<="
	}
}

// utcMillis normalises an instant to the millisecond precision every backend
// can store.
func utcMillis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
