package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"graysky/internal/database"
	"graysky/internal/models"
)

// SQLiteFeedbackStore persists feedback entries, one row each. No identity
// handling: every submission is its own row.
type SQLiteFeedbackStore struct {
	db *database.DB
}

// NewSQLiteFeedbackStore wraps an initialized database handle.
func NewSQLiteFeedbackStore(db *database.DB) *SQLiteFeedbackStore {
	return &SQLiteFeedbackStore{db: db}
}

// Insert stores a feedback entry.
func (s *SQLiteFeedbackStore) Insert(ctx context.Context, feedback *models.Feedback) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, agent_name, agent_type, issues, feature_requests, usability_rating, additional_comments, submission_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		feedback.ID, feedback.AgentName, nullable(feedback.AgentType),
		nullable(feedback.Issues), nullable(feedback.FeatureRequests),
		nullableInt(feedback.UsabilityRating), nullable(feedback.AdditionalComments),
		feedback.SubmissionTime.UTC().Format(TimeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, most recent submission first.
func (s *SQLiteFeedbackStore) ListRecent(ctx context.Context, limit int) ([]models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_name, agent_type, issues, feature_requests, usability_rating, additional_comments, submission_time
		FROM feedback ORDER BY submission_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []models.Feedback
	for rows.Next() {
		var (
			entry          models.Feedback
			agentType      sql.NullString
			issues         sql.NullString
			features       sql.NullString
			rating         sql.NullInt64
			comments       sql.NullString
			submissionTime string
		)
		err := rows.Scan(&entry.ID, &entry.AgentName, &agentType, &issues, &features, &rating, &comments, &submissionTime)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		if agentType.Valid {
			entry.AgentType = &agentType.String
		}
		if issues.Valid {
			entry.Issues = &issues.String
		}
		if features.Valid {
			entry.FeatureRequests = &features.String
		}
		if rating.Valid {
			r := int(rating.Int64)
			entry.UsabilityRating = &r
		}
		if comments.Valid {
			entry.AdditionalComments = &comments.String
		}

		parsed, err := time.Parse(TimeLayout, submissionTime)
		if err != nil {
			return nil, fmt.Errorf("invalid submission_time %q: %w", submissionTime, err)
		}
		entry.SubmissionTime = parsed

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return entries, nil
}

// TrimToCapacity deletes oldest-by-submission-time rows beyond maxRecords.
func (s *SQLiteFeedbackStore) TrimToCapacity(ctx context.Context, maxRecords int) error {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&total); err != nil {
		return fmt.Errorf("failed to count feedback: %w", err)
	}
	if total <= maxRecords {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM feedback WHERE id IN (
			SELECT id FROM feedback ORDER BY submission_time ASC LIMIT ?
		)`, total-maxRecords)
	if err != nil {
		return fmt.Errorf("failed to trim feedback: %w", err)
	}
	return nil
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
