package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"graysky/internal/database"
	"graysky/internal/models"
)

func testFeedback(id, name string, at time.Time) *models.Feedback {
	rating := 4
	return &models.Feedback{
		ID:              id,
		AgentName:       name,
		Issues:          strPtr("none so far"),
		UsabilityRating: &rating,
		SubmissionTime:  at,
	}
}

// Both feedback backends share a contract, so they share a test.
func TestFeedbackStores(t *testing.T) {
	backends := map[string]func(t *testing.T) FeedbackStore{
		"file": func(t *testing.T) FeedbackStore {
			s, err := NewFileFeedbackStore(filepath.Join(t.TempDir(), "feedback.json"))
			if err != nil {
				t.Fatalf("NewFileFeedbackStore failed: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite": func(t *testing.T) FeedbackStore {
			db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("database.New failed: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			if err := db.Initialize(); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			return NewSQLiteFeedbackStore(db)
		},
	}

	for name, newStore := range backends {
		t.Run(name+"/insert and list", func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Microsecond)

			for i := 0; i < 3; i++ {
				entry := testFeedback(fmt.Sprintf("f%d", i), fmt.Sprintf("agent-%d", i), base.Add(time.Duration(i)*time.Minute))
				if err := s.Insert(ctx, entry); err != nil {
					t.Fatalf("Insert failed: %v", err)
				}
			}

			got, err := s.ListRecent(ctx, 2)
			if err != nil {
				t.Fatalf("ListRecent failed: %v", err)
			}
			if len(got) != 2 || got[0].ID != "f2" || got[1].ID != "f1" {
				t.Fatalf("unexpected ordering: %+v", got)
			}
			if got[0].UsabilityRating == nil || *got[0].UsabilityRating != 4 {
				t.Fatalf("rating not round-tripped: %v", got[0].UsabilityRating)
			}
			if got[0].Issues == nil || *got[0].Issues != "none so far" {
				t.Fatalf("issues not round-tripped: %v", got[0].Issues)
			}
		})

		t.Run(name+"/nil optional fields", func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			entry := &models.Feedback{
				ID:             "f1",
				AgentName:      "Ada",
				SubmissionTime: time.Now().UTC(),
			}
			if err := s.Insert(ctx, entry); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			got, err := s.ListRecent(ctx, 10)
			if err != nil {
				t.Fatalf("ListRecent failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(got))
			}
			if got[0].AgentType != nil || got[0].Issues != nil || got[0].UsabilityRating != nil {
				t.Fatalf("optional fields should stay nil: %+v", got[0])
			}
		})

		t.Run(name+"/trim drops oldest", func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			base := time.Now().UTC()

			for i := 0; i < 5; i++ {
				entry := testFeedback(fmt.Sprintf("f%d", i), "agent", base.Add(time.Duration(i)*time.Minute))
				if err := s.Insert(ctx, entry); err != nil {
					t.Fatalf("Insert failed: %v", err)
				}
			}

			if err := s.TrimToCapacity(ctx, 2); err != nil {
				t.Fatalf("TrimToCapacity failed: %v", err)
			}

			got, err := s.ListRecent(ctx, 10)
			if err != nil {
				t.Fatalf("ListRecent failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 entries after trim, got %d", len(got))
			}
			for _, e := range got {
				if e.ID != "f3" && e.ID != "f4" {
					t.Fatalf("older entry %s survived the trim", e.ID)
				}
			}
		})
	}
}
