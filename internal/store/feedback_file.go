package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/natefinch/atomic"

	"graysky/internal/models"
)

// FileFeedbackStore is the feedback counterpart of FileVisitorStore: the
// same single-document layout without any identity lookup.
type FileFeedbackStore struct {
	path string
	mu   sync.RWMutex
	lock *os.File
}

// NewFileFeedbackStore opens (creating if needed) the JSON store at path.
func NewFileFeedbackStore(path string) (*FileFeedbackStore, error) {
	if err := ensureDataFile(path); err != nil {
		return nil, err
	}

	lock, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	return &FileFeedbackStore{path: path, lock: lock}, nil
}

// Close releases the lock file handle.
func (s *FileFeedbackStore) Close() error {
	return s.lock.Close()
}

// Insert appends a feedback entry.
func (s *FileFeedbackStore) Insert(_ context.Context, feedback *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := flockExclusive(s.lock); err != nil {
		return fmt.Errorf("failed to lock data file: %w", err)
	}
	defer flockRelease(s.lock)

	entries, err := s.loadLocked()
	if err != nil {
		return err
	}

	entries = append(entries, *feedback)
	return s.save(entries)
}

// ListRecent returns up to limit entries, most recent submission first.
func (s *FileFeedbackStore) ListRecent(_ context.Context, limit int) ([]models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := flockShared(s.lock); err != nil {
		return nil, fmt.Errorf("failed to lock data file: %w", err)
	}
	defer flockRelease(s.lock)

	entries, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SubmissionTime.After(entries[j].SubmissionTime)
	})
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// TrimToCapacity drops oldest-by-submission-time entries beyond maxRecords.
func (s *FileFeedbackStore) TrimToCapacity(_ context.Context, maxRecords int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := flockExclusive(s.lock); err != nil {
		return fmt.Errorf("failed to lock data file: %w", err)
	}
	defer flockRelease(s.lock)

	entries, err := s.loadLocked()
	if err != nil {
		return err
	}

	if len(entries) <= maxRecords {
		return nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SubmissionTime.After(entries[j].SubmissionTime)
	})
	return s.save(entries[:maxRecords])
}

func (s *FileFeedbackStore) loadLocked() ([]models.Feedback, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var entries []models.Feedback
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return entries, nil
}

func (s *FileFeedbackStore) save(entries []models.Feedback) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	return nil
}
