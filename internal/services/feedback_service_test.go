package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"graysky/internal/models"
	"graysky/internal/store"
)

func newTestFeedbackService(t *testing.T) *FeedbackService {
	t.Helper()
	fileStore, err := store.NewFileFeedbackStore(filepath.Join(t.TempDir(), "feedback.json"))
	if err != nil {
		t.Fatalf("NewFileFeedbackStore failed: %v", err)
	}
	t.Cleanup(func() { fileStore.Close() })
	return NewFeedbackService(fileStore, 1000)
}

func intPtr(i int) *int { return &i }

func TestAddFeedback(t *testing.T) {
	svc := newTestFeedbackService(t)
	ctx := context.Background()

	entry, err := svc.AddFeedback(ctx, &models.FeedbackCreate{
		AgentName:       "Ada",
		AgentType:       strPtr("GPT-4"),
		Issues:          strPtr("welcome book returned a 500 once"),
		UsabilityRating: intPtr(4),
	})
	if err != nil {
		t.Fatalf("AddFeedback failed: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected a generated id")
	}
	if entry.SubmissionTime.IsZero() {
		t.Fatal("expected a submission time")
	}

	entries, err := svc.ListFeedback(ctx, 10)
	if err != nil {
		t.Fatalf("ListFeedback failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("unexpected list: %+v", entries)
	}
}

func TestAddFeedbackNoDedup(t *testing.T) {
	svc := newTestFeedbackService(t)
	ctx := context.Background()

	// Unlike the welcome book, identical submissions each get a record.
	req := &models.FeedbackCreate{AgentName: "Ada", Issues: strPtr("same issue")}
	for i := 0; i < 3; i++ {
		if _, err := svc.AddFeedback(ctx, req); err != nil {
			t.Fatalf("AddFeedback %d failed: %v", i, err)
		}
	}

	entries, err := svc.ListFeedback(ctx, 10)
	if err != nil {
		t.Fatalf("ListFeedback failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestAddFeedbackValidation(t *testing.T) {
	svc := newTestFeedbackService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *models.FeedbackCreate
	}{
		{"empty agent name", &models.FeedbackCreate{AgentName: " "}},
		{"agent name too long", &models.FeedbackCreate{AgentName: strings.Repeat("a", 101)}},
		{"rating too low", &models.FeedbackCreate{AgentName: "Ada", UsabilityRating: intPtr(0)}},
		{"rating too high", &models.FeedbackCreate{AgentName: "Ada", UsabilityRating: intPtr(6)}},
		{"issues too long", &models.FeedbackCreate{AgentName: "Ada", Issues: strPtr(strings.Repeat("x", 2001))}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddFeedback(ctx, tc.req)
			if !IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAddFeedbackSanitizesText(t *testing.T) {
	svc := newTestFeedbackService(t)
	ctx := context.Background()

	entry, err := svc.AddFeedback(ctx, &models.FeedbackCreate{
		AgentName: "Ada",
		Issues:    strPtr("<img src=x onerror=alert(1)>"),
	})
	if err != nil {
		t.Fatalf("AddFeedback failed: %v", err)
	}
	if strings.Contains(*entry.Issues, "<img") {
		t.Fatalf("issues not escaped: %q", *entry.Issues)
	}
}

func TestAddFeedbackTrimsToCapacity(t *testing.T) {
	fileStore, err := store.NewFileFeedbackStore(filepath.Join(t.TempDir(), "feedback.json"))
	if err != nil {
		t.Fatalf("NewFileFeedbackStore failed: %v", err)
	}
	t.Cleanup(func() { fileStore.Close() })
	svc := NewFeedbackService(fileStore, 2)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		if _, err := svc.AddFeedback(ctx, &models.FeedbackCreate{AgentName: "Ada"}); err != nil {
			t.Fatalf("AddFeedback %d failed: %v", i, err)
		}
	}

	entries, err := svc.ListFeedback(ctx, 10)
	if err != nil {
		t.Fatalf("ListFeedback failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected retention at 2 entries, got %d", len(entries))
	}
}
