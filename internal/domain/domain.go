// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"

	"stockledger/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs substring search on number/code/name fields
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeDeleted includes soft-deleted records.
	// Deleted records are always excluded unless asked for explicitly.
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g., "number", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Audit ---

// Auditor records who did what to which document. Implementations persist
// the payload (Postgres audit log); a nil-safe no-op is used in tests.
type Auditor interface {
	// Log records an audited action. Failure to audit must not fail the
	// business operation; implementations log and swallow storage errors
	// outside the caller's transaction.
	Log(ctx context.Context, action, entityType string, entityID id.ID, payload any) error
}

// NopAuditor discards audit entries.
type NopAuditor struct{}

func (NopAuditor) Log(ctx context.Context, action, entityType string, entityID id.ID, payload any) error {
	return nil
}
