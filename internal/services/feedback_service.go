package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"graysky/internal/models"
	"graysky/internal/security"
	"graysky/internal/store"
)

// Feedback text fields allow longer free text than visitor fields.
const maxFeedbackTextLength = 2000

// FeedbackService records feedback submissions. It is the visitor registry
// without the identity machinery: no dedup, no per-name cooldown, every
// accepted submission is a fresh record.
type FeedbackService struct {
	store       store.FeedbackStore
	maxFeedback int
	now         func() time.Time
}

// NewFeedbackService creates a feedback registry over the given backend.
func NewFeedbackService(s store.FeedbackStore, maxFeedback int) *FeedbackService {
	return &FeedbackService{
		store:       s,
		maxFeedback: maxFeedback,
		now:         time.Now,
	}
}

// AddFeedback validates, sanitizes and stores one feedback entry.
func (s *FeedbackService) AddFeedback(ctx context.Context, req *models.FeedbackCreate) (*models.Feedback, error) {
	if err := validateFeedback(req); err != nil {
		return nil, err
	}

	entry := &models.Feedback{
		ID:                 uuid.NewString(),
		AgentName:          security.Sanitize(req.AgentName, maxNameLength),
		AgentType:          security.SanitizePtr(req.AgentType, maxNameLength),
		Issues:             security.SanitizePtr(req.Issues, maxFeedbackTextLength),
		FeatureRequests:    security.SanitizePtr(req.FeatureRequests, maxFeedbackTextLength),
		UsabilityRating:    req.UsabilityRating,
		AdditionalComments: security.SanitizePtr(req.AdditionalComments, maxFeedbackTextLength),
		SubmissionTime:     s.now(),
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	if err := s.store.TrimToCapacity(ctx, s.maxFeedback); err != nil {
		logrus.WithError(err).Warn("failed to trim feedback entries")
	}

	logrus.WithFields(logrus.Fields{
		"feedback_id": entry.ID,
		"agent_name":  entry.AgentName,
	}).Info("feedback recorded")

	return entry, nil
}

// ListFeedback returns recent feedback, most recent first. The limit is
// clamped into [1, 100].
func (s *FeedbackService) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	limit = min(max(1, limit), 100)

	entries, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	if entries == nil {
		entries = []models.Feedback{}
	}
	return entries, nil
}

func validateFeedback(req *models.FeedbackCreate) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.AgentName) == "" {
		fields["agent_name"] = "Agent name is required"
	} else if utf8.RuneCountInString(req.AgentName) > maxNameLength {
		fields["agent_name"] = fmt.Sprintf("Agent name must be %d characters or less", maxNameLength)
	}

	if req.AgentType != nil && utf8.RuneCountInString(*req.AgentType) > maxNameLength {
		fields["agent_type"] = fmt.Sprintf("Agent type must be %d characters or less", maxNameLength)
	}

	for name, value := range map[string]*string{
		"issues":              req.Issues,
		"feature_requests":    req.FeatureRequests,
		"additional_comments": req.AdditionalComments,
	} {
		if value != nil && utf8.RuneCountInString(*value) > maxFeedbackTextLength {
			fields[name] = fmt.Sprintf("%s must be %d characters or less", name, maxFeedbackTextLength)
		}
	}

	if req.UsabilityRating != nil && (*req.UsabilityRating < 1 || *req.UsabilityRating > 5) {
		fields["usability_rating"] = "Usability rating must be between 1 and 5"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
