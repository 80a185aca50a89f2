package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"graysky/internal/logging"
	"graysky/internal/models"
	"graysky/internal/security"
	"graysky/internal/store"
)

// Field ceilings for visitor submissions, measured in characters.
const (
	maxNameLength    = 100
	maxFieldLength   = 500
	maxAnswerKeyLen  = 50
	maxAnswersSerial = 2000
)

// VisitorService is the welcome-book registry. A submission is validated,
// sanitized, checked against the per-name cooldown, resolved to an existing
// identity if one exists, and persisted. All rate-limit and identity state
// is derived from durable storage on every call; there is no in-memory
// cache to go stale across workers or restarts.
type VisitorService struct {
	store       store.VisitorStore
	window      time.Duration
	maxVisitors int

	// mu spans the rate-limit check through the upsert so two in-process
	// submissions for one identity serialize. Cross-process, the file
	// backend's exclusive flock and the SQLite backend's transactional
	// identity re-check close the same window.
	mu sync.Mutex

	now func() time.Time // injectable clock for tests
}

// NewVisitorService creates a visitor registry over the given backend.
func NewVisitorService(s store.VisitorStore, window time.Duration, maxVisitors int) *VisitorService {
	return &VisitorService{
		store:       s,
		window:      window,
		maxVisitors: maxVisitors,
		now:         time.Now,
	}
}

// RegisterVisit records a visit. First-time identities get a fresh record
// with visit count 1; repeat identities are updated in place with their
// count bumped and their answers replaced wholesale. Submissions under a
// name that visited within the cooldown window are rejected regardless of
// agent type — the cooldown deliberately keys on name alone so switching
// agent types does not dodge it, even though identity does not.
func (s *VisitorService) RegisterVisit(ctx context.Context, req *models.VisitorCreate) (*models.Visitor, error) {
	if err := validateVisitor(req); err != nil {
		return nil, err
	}

	name := security.Sanitize(req.Name, maxNameLength)
	agentType := security.SanitizePtr(req.AgentType, maxFieldLength)
	purpose := security.SanitizePtr(req.Purpose, maxFieldLength)

	answers := make(map[string]string, len(req.Answers))
	for key, value := range req.Answers {
		answers[security.Sanitize(key, maxAnswerKeyLen)] = security.Sanitize(value, maxFieldLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	recent, err := s.store.CountByNameSince(ctx, name, now.Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if recent > 0 {
		return nil, ErrRateLimited
	}

	visitor := &models.Visitor{
		ID:         uuid.NewString(),
		Name:       name,
		AgentType:  agentType,
		Purpose:    purpose,
		VisitTime:  now,
		VisitCount: 1,
		Answers:    answers,
	}

	existing, err := s.store.FindByIdentity(ctx, name, agentType)
	switch {
	case err == nil:
		visitor.ID = existing.ID
		visitor.VisitCount = existing.VisitCount + 1
	case errors.Is(err, store.ErrNotFound):
		// first visit for this identity
	default:
		return nil, fmt.Errorf("failed to resolve visitor identity: %w", err)
	}

	if err := s.store.Upsert(ctx, visitor); err != nil {
		return nil, fmt.Errorf("failed to store visit: %w", err)
	}

	// Retention runs opportunistically on the write path. The visit itself
	// already succeeded, so a trim failure is logged, not surfaced.
	if err := s.store.TrimToCapacity(ctx, s.maxVisitors); err != nil {
		slog.Warn("failed to trim visitor records", "error", err)
	}

	logging.WithVisitor(visitor.Name, visitor.AgentType).Info("visit recorded",
		"visitor_id", visitor.ID,
		"visit_count", visitor.VisitCount,
	)

	return visitor, nil
}

// ListVisitors returns recent visitors, most recent first. The limit is
// clamped into [1, 100].
func (s *VisitorService) ListVisitors(ctx context.Context, limit int) ([]models.Visitor, error) {
	limit = min(max(1, limit), 100)

	visitors, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	if visitors == nil {
		visitors = []models.Visitor{}
	}
	return visitors, nil
}

// validateVisitor checks raw (pre-sanitization) lengths so the error message
// talks about what the caller actually sent.
func validateVisitor(req *models.VisitorCreate) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	} else if utf8.RuneCountInString(req.Name) > maxNameLength {
		fields["name"] = fmt.Sprintf("Name must be %d characters or less", maxNameLength)
	}

	if req.AgentType != nil && utf8.RuneCountInString(*req.AgentType) > maxFieldLength {
		fields["agent_type"] = fmt.Sprintf("Agent type must be %d characters or less", maxFieldLength)
	}

	if req.Purpose != nil && utf8.RuneCountInString(*req.Purpose) > maxFieldLength {
		fields["purpose"] = fmt.Sprintf("Purpose must be %d characters or less", maxFieldLength)
	}

	if len(req.Answers) > 0 {
		serialized, err := json.Marshal(req.Answers)
		if err != nil || len(serialized) > maxAnswersSerial {
			fields["answers"] = "Answers exceeded maximum allowed size"
		}
		for key := range req.Answers {
			if utf8.RuneCountInString(key) > maxAnswerKeyLen {
				fields["answers"] = fmt.Sprintf("Answer keys must be %d characters or less", maxAnswerKeyLen)
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
