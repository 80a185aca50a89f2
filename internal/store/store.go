// Package store persists welcome-book and feedback records. Two
// interchangeable backends exist: a lock-guarded JSON file and a SQLite
// schema. Both satisfy the same interfaces and are selected at startup.
package store

import (
	"context"
	"errors"
	"time"

	"graysky/internal/models"
)

var (
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateIdentity is returned when an insert would create a second
	// record for a (name, agent type) identity that already has one. It means
	// the caller lost a race: the winning insert happened between the caller's
	// identity lookup and its upsert.
	ErrDuplicateIdentity = errors.New("record already exists for this identity")
)

// TimeLayout is RFC 3339 UTC with fixed nanosecond width. The fixed width
// keeps lexicographic order equal to chronological order, which the SQLite
// backend relies on for ORDER BY visit_time.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// VisitorStore is the capability contract both visitor backends implement.
//
// Upsert is atomic with respect to concurrent calls for the same identity:
// concurrent first-time inserts cannot create two records for one
// (name, agent type) pair. The loser is rejected with ErrDuplicateIdentity.
type VisitorStore interface {
	// FindByIdentity returns the single record whose name and agent type
	// both match exactly. A nil agent type only matches records stored
	// without one.
	FindByIdentity(ctx context.Context, name string, agentType *string) (*models.Visitor, error)

	// CountByNameSince counts records with the given name whose visit time
	// is after the cutoff, across all agent types.
	CountByNameSince(ctx context.Context, name string, since time.Time) (int, error)

	// Upsert overwrites the record with the same ID, or inserts a new one.
	Upsert(ctx context.Context, visitor *models.Visitor) error

	// ListRecent returns up to limit records ordered by visit time descending.
	ListRecent(ctx context.Context, limit int) ([]models.Visitor, error)

	// TrimToCapacity deletes oldest-by-visit-time records until at most
	// maxRecords remain.
	TrimToCapacity(ctx context.Context, maxRecords int) error
}

// FeedbackStore is the feedback counterpart: a strict subset of the visitor
// contract with no identity lookup.
type FeedbackStore interface {
	Insert(ctx context.Context, feedback *models.Feedback) error
	ListRecent(ctx context.Context, limit int) ([]models.Feedback, error)
	TrimToCapacity(ctx context.Context, maxRecords int) error
}

// identityMatches reports whether a stored record belongs to the
// (name, agentType) identity. Absence of an agent type is its own bucket.
func identityMatches(v *models.Visitor, name string, agentType *string) bool {
	if v.Name != name {
		return false
	}
	if v.AgentType == nil || agentType == nil {
		return v.AgentType == nil && agentType == nil
	}
	return *v.AgentType == *agentType
}
