package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"graysky/internal/database"
	"graysky/internal/models"
)

// SQLiteVisitorStore persists visitors in a normalized schema: one row per
// visitor plus a child answers table with cascading delete. Uniqueness of
// (name, agent_type) is enforced by re-checking the identity inside the
// write transaction rather than by a schema constraint, matching the
// lookup-then-upsert contract.
type SQLiteVisitorStore struct {
	db *database.DB
}

// NewSQLiteVisitorStore wraps an initialized database handle.
func NewSQLiteVisitorStore(db *database.DB) *SQLiteVisitorStore {
	return &SQLiteVisitorStore{db: db}
}

// FindByIdentity returns the record matching the exact (name, agent type) pair.
func (s *SQLiteVisitorStore) FindByIdentity(ctx context.Context, name string, agentType *string) (*models.Visitor, error) {
	var (
		row *sql.Row
	)
	if agentType != nil {
		row = s.db.QueryRowContext(ctx, `
			SELECT id, name, agent_type, purpose, visit_time, visit_count
			FROM visitors WHERE name = ? AND agent_type = ?`, name, *agentType)
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT id, name, agent_type, purpose, visit_time, visit_count
			FROM visitors WHERE name = ? AND agent_type IS NULL`, name)
	}

	visitor, err := scanVisitor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find visitor: %w", err)
	}

	answers, err := s.loadAnswers(ctx, visitor.ID)
	if err != nil {
		return nil, err
	}
	visitor.Answers = answers
	return visitor, nil
}

// CountByNameSince counts visits under the name after the cutoff, across
// all agent types.
func (s *SQLiteVisitorStore) CountByNameSince(ctx context.Context, name string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM visitors WHERE name = ? AND visit_time > ?`,
		name, since.UTC().Format(TimeLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent visits: %w", err)
	}
	return count, nil
}

// Upsert writes the visitor and its answers in one transaction. Answers are
// replaced wholesale: delete-all-then-insert-all, never diffed. If the row
// would be a fresh insert but another row already holds the same identity,
// the transaction is abandoned with ErrDuplicateIdentity.
func (s *SQLiteVisitorStore) Upsert(ctx context.Context, visitor *models.Visitor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors WHERE id = ?`, visitor.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up visitor: %w", err)
	}

	visitTime := visitor.VisitTime.UTC().Format(TimeLayout)

	if exists > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE visitors SET name = ?, agent_type = ?, purpose = ?, visit_time = ?, visit_count = ?
			WHERE id = ?`,
			visitor.Name, nullable(visitor.AgentType), nullable(visitor.Purpose),
			visitTime, visitor.VisitCount, visitor.ID)
		if err != nil {
			return fmt.Errorf("failed to update visitor: %w", err)
		}
	} else {
		// Re-check the identity inside the write transaction. Two
		// concurrent first-time submissions both pass the service's
		// lookup; only one may insert.
		var conflict int
		var row *sql.Row
		if visitor.AgentType != nil {
			row = tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM visitors WHERE name = ? AND agent_type = ?`,
				visitor.Name, *visitor.AgentType)
		} else {
			row = tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM visitors WHERE name = ? AND agent_type IS NULL`,
				visitor.Name)
		}
		if err := row.Scan(&conflict); err != nil {
			return fmt.Errorf("failed to check identity: %w", err)
		}
		if conflict > 0 {
			return ErrDuplicateIdentity
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO visitors (id, name, agent_type, purpose, visit_time, visit_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			visitor.ID, visitor.Name, nullable(visitor.AgentType), nullable(visitor.Purpose),
			visitTime, visitor.VisitCount)
		if err != nil {
			return fmt.Errorf("failed to insert visitor: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE visitor_id = ?`, visitor.ID); err != nil {
		return fmt.Errorf("failed to clear answers: %w", err)
	}
	for key, value := range visitor.Answers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO answers (visitor_id, key, value) VALUES (?, ?, ?)`,
			visitor.ID, key, value)
		if err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visitor: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, most recent visit first.
func (s *SQLiteVisitorStore) ListRecent(ctx context.Context, limit int) ([]models.Visitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, agent_type, purpose, visit_time, visit_count
		FROM visitors ORDER BY visit_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	var visitors []models.Visitor
	for rows.Next() {
		visitor, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		visitors = append(visitors, *visitor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}

	for i := range visitors {
		answers, err := s.loadAnswers(ctx, visitors[i].ID)
		if err != nil {
			return nil, err
		}
		visitors[i].Answers = answers
	}
	return visitors, nil
}

// TrimToCapacity deletes oldest-by-visit-time rows beyond maxRecords.
// Cascading delete removes their answers.
func (s *SQLiteVisitorStore) TrimToCapacity(ctx context.Context, maxRecords int) error {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`).Scan(&total); err != nil {
		return fmt.Errorf("failed to count visitors: %w", err)
	}
	if total <= maxRecords {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM visitors WHERE id IN (
			SELECT id FROM visitors ORDER BY visit_time ASC LIMIT ?
		)`, total-maxRecords)
	if err != nil {
		return fmt.Errorf("failed to trim visitors: %w", err)
	}
	return nil
}

func (s *SQLiteVisitorStore) loadAnswers(ctx context.Context, visitorID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM answers WHERE visitor_id = ?`, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	defer rows.Close()

	answers := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return answers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (*models.Visitor, error) {
	var (
		visitor   models.Visitor
		agentType sql.NullString
		purpose   sql.NullString
		visitTime string
	)
	if err := row.Scan(&visitor.ID, &visitor.Name, &agentType, &purpose, &visitTime, &visitor.VisitCount); err != nil {
		return nil, err
	}

	if agentType.Valid {
		visitor.AgentType = &agentType.String
	}
	if purpose.Valid {
		visitor.Purpose = &purpose.String
	}

	parsed, err := time.Parse(TimeLayout, visitTime)
	if err != nil {
		return nil, fmt.Errorf("invalid visit_time %q: %w", visitTime, err)
	}
	visitor.VisitTime = parsed

	return &visitor, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
